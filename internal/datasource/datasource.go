// Package datasource builds the configured legislative data source.
package datasource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skridlevsky/legiscore/internal/config"
	"github.com/skridlevsky/legiscore/internal/db"
	"github.com/skridlevsky/legiscore/internal/legislature"
	"github.com/skridlevsky/legiscore/internal/openstates"
)

// Opened is a ready data source plus whatever backs it
type Opened struct {
	Source legislature.Source

	// Set when DATA_SOURCE=postgres
	Database *db.Postgres
	// Set when DATA_SOURCE=openstates
	Bills *openstates.BillCache
}

// Open connects to the source named by cfg.DataSource
func Open(ctx context.Context, cfg *config.Config) (*Opened, error) {
	switch cfg.DataSource {
	case config.SourceOpenStates:
		bills := openstates.NewBillCache(cfg.BillCacheTTL)
		client := openstates.NewClient(cfg.OpenStatesAPIKey, cfg.OpenStatesBaseURL, cfg.OpenStatesTimeout, bills)
		slog.Info("Using Open States API", "base_url", cfg.OpenStatesBaseURL)
		return &Opened{Source: client, Bills: bills}, nil

	case config.SourcePostgres:
		database, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.DBMigrate {
			if err := db.RunMigrations(ctx, database.DB()); err != nil {
				database.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		slog.Info("Using Open States bulk-data mirror")
		return &Opened{Source: db.NewSource(database.DB()), Database: database}, nil
	}

	return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
}

// Close releases the database pool, if any
func (o *Opened) Close() {
	if o.Database != nil {
		o.Database.Close()
	}
}
