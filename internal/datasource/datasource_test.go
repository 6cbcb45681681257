package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/skridlevsky/legiscore/internal/config"
	"github.com/skridlevsky/legiscore/internal/openstates"
)

func TestOpenOpenStates(t *testing.T) {
	cfg := &config.Config{
		State:             "ks",
		DataSource:        config.SourceOpenStates,
		OpenStatesAPIKey:  "key",
		OpenStatesBaseURL: "http://localhost:0",
		OpenStatesTimeout: time.Second,
		BillCacheTTL:      time.Minute,
	}

	opened, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opened.Close()

	if _, ok := opened.Source.(*openstates.Client); !ok {
		t.Fatalf("Source = %T, want *openstates.Client", opened.Source)
	}
	if opened.Bills == nil || opened.Database != nil {
		t.Fatalf("opened = %+v", opened)
	}
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	cfg := &config.Config{State: "ks", DataSource: config.SourcePostgres}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for empty DATABASE_URL")
	}
}

func TestOpenUnknown(t *testing.T) {
	cfg := &config.Config{State: "ks", DataSource: "csv"}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown data source")
	}
}
