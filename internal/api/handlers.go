package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// HealthChecker is anything that can report liveness, such as the mirror pool
type HealthChecker interface {
	Health(context.Context) error
}

// NewHealthHandler handles GET /api/health. db may be nil when the
// scorecard reads from the Open States API.
func NewHealthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]string)
		status := "ok"

		if db != nil {
			if err := db.Health(r.Context()); err != nil {
				slog.Error("Database health check failed", "error", err)
				services["database"] = "unhealthy"
				status = "degraded"
			} else {
				services["database"] = "healthy"
			}
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		respondJSON(w, code, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Services:  services,
		})
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
