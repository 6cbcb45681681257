package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/skridlevsky/legiscore/internal/api"
	"github.com/skridlevsky/legiscore/internal/config"
	"github.com/skridlevsky/legiscore/internal/datasource"
	"github.com/skridlevsky/legiscore/internal/openstates"
	"github.com/skridlevsky/legiscore/internal/scorecard"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.TrackedVotesFile == "" {
		log.Fatalf("Configuration error: TRACKED_VOTES_FILE is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracked, err := scorecard.LoadTrackedVotesFile(cfg.TrackedVotesFile)
	if err != nil {
		log.Fatalf("Failed to load tracked votes: %v", err)
	}
	log.Printf("Loaded %d tracked votes", len(tracked))

	scale, err := scorecard.LoadGradeScale(cfg.GradeScaleFile)
	if err != nil {
		log.Fatalf("Failed to load grade scale: %v", err)
	}
	columns, err := scorecard.ParseColumnMode(cfg.ReportColumns)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	opened, err := datasource.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open data source: %v", err)
	}
	// NOTE: opened.Close() called explicitly in shutdown sequence below, no defer

	gen, err := scorecard.NewGenerator(opened.Source, cfg.State, scale, columns)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}
	reports := scorecard.NewCachedGenerator(gen, tracked, cfg.ReportCacheTTL)

	if opened.Bills != nil {
		go sweepBillCache(ctx, opened.Bills, cfg.BillCacheTTL)
	}

	refresh := func() {
		if opened.Bills != nil {
			opened.Bills.Clear()
		}
		reports.Invalidate()
	}

	routerCfg := &api.RouterConfig{
		Reports:     reports,
		CORSAll:     cfg.Env == "development",
		CORSOrigins: cfg.CORSOrigins,
		AdminToken:  cfg.AdminToken,
		Refresh:     refresh,
	}
	// leave the interface nil rather than holding a nil *db.Postgres
	if opened.Database != nil {
		routerCfg.Database = opened.Database
	}
	routerResult := api.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      routerResult.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second, // Must exceed the export handler's 2m generation timeout
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (state %s, source %s)", cfg.Port, cfg.State, cfg.DataSource)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	log.Println("Stopping rate limiters...")
	routerResult.RateLimiters.Stop()

	// Stops the bill cache sweeper and any in-flight generation
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Closing data source...")
	opened.Close()

	log.Println("Server exited")
}

// sweepBillCache drops expired bills once per TTL until ctx is done
func sweepBillCache(ctx context.Context, bills *openstates.BillCache, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := bills.CleanExpired(); removed > 0 {
				slog.Debug("Expired bills removed from cache", "removed", removed, "remaining", bills.Count())
			}
		case <-ctx.Done():
			return
		}
	}
}
