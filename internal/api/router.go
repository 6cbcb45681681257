package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Database    HealthChecker // nil unless reading from the mirror
	Reports     ReportSource
	CORSAll     bool
	CORSOrigins []string

	// Refresh is mounted at POST /api/scorecard/refresh when AdminToken is set
	AdminToken string
	Refresh    func()
}

// RouterResult holds the router and resources that need cleanup
type RouterResult struct {
	Router       *chi.Mux
	RateLimiters *RateLimiters
}

// NewRouter creates and configures the HTTP router.
// Caller must call result.RateLimiters.Stop() on shutdown.
func NewRouter(cfg *RouterConfig) *RouterResult {
	r := chi.NewRouter()

	rateLimiters := NewRateLimiters()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(cfg.CORSAll, cfg.CORSOrigins))
	r.Use(rateLimiters.Global.Middleware)

	r.Get("/api/health", NewHealthHandler(cfg.Database))

	scorecardHandler := NewScorecardHandler(cfg.Reports)
	r.Route("/api/scorecard", func(r chi.Router) {
		r.Get("/", scorecardHandler.Get)
		r.Get("/tracked", scorecardHandler.GetTracked)
		if cfg.AdminToken != "" && cfg.Refresh != nil {
			r.With(RequireToken(cfg.AdminToken)).Post("/refresh", NewRefreshHandler(cfg.Refresh))
		}
		r.With(rateLimiters.ExportGuard).Get("/export", scorecardHandler.Export)
		r.Get("/{chamber}", scorecardHandler.GetChamber)
		// Open States person ids contain a slash (ocd-person/...)
		r.Get("/{chamber}/*", scorecardHandler.GetLegislator)
	})

	return &RouterResult{
		Router:       r,
		RateLimiters: rateLimiters,
	}
}
