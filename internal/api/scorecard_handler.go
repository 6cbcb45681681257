package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skridlevsky/legiscore/internal/legislature"
	"github.com/skridlevsky/legiscore/internal/openstates"
	"github.com/skridlevsky/legiscore/internal/scorecard"
)

// ReportSource yields the current scorecard and the votes it grades.
// *scorecard.CachedGenerator satisfies it.
type ReportSource interface {
	Report(ctx context.Context) (*scorecard.Report, error)
	Tracked() []scorecard.TrackedVote
}

// ScorecardHandler serves the scorecard as JSON and CSV
type ScorecardHandler struct {
	reports ReportSource
}

// NewScorecardHandler creates a new scorecard handler
func NewScorecardHandler(reports ReportSource) *ScorecardHandler {
	return &ScorecardHandler{reports: reports}
}

// ChamberResponse is one chamber section with its report metadata
type ChamberResponse struct {
	ReportID    string    `json:"reportId"`
	State       string    `json:"state"`
	GeneratedAt time.Time `json:"generatedAt"`
	*scorecard.ChamberReport
}

// LegislatorResponse is a single legislator's row with its column labels
type LegislatorResponse struct {
	ReportID    string              `json:"reportId"`
	State       string              `json:"state"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Chamber     legislature.Chamber `json:"chamber"`
	Columns     []string            `json:"columns"`
	scorecard.Row
}

// TrackedResponse lists the tracked votes in column order
type TrackedResponse struct {
	Count int                     `json:"count"`
	Votes []scorecard.TrackedVote `json:"votes"`
}

// GetTracked handles GET /api/scorecard/tracked
func (h *ScorecardHandler) GetTracked(w http.ResponseWriter, r *http.Request) {
	votes := h.reports.Tracked()
	if votes == nil {
		votes = []scorecard.TrackedVote{}
	}
	respondJSON(w, http.StatusOK, TrackedResponse{Count: len(votes), Votes: votes})
}

// NewRefreshHandler handles POST /api/scorecard/refresh. refresh drops every
// cached bill and report so the next request regenerates from the source.
func NewRefreshHandler(refresh func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refresh()
		slog.Info("Scorecard caches cleared", "remote", GetClientIP(r))
		respondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
	}
}

// Get handles GET /api/scorecard
func (h *ScorecardHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetChamber handles GET /api/scorecard/{chamber}
func (h *ScorecardHandler) GetChamber(w http.ResponseWriter, r *http.Request) {
	chamber, err := legislature.ParseChamber(chi.URLParam(r, "chamber"))
	if err != nil {
		http.Error(w, "Invalid chamber (use upper or lower)", http.StatusBadRequest)
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}
	section, found := report.Chamber(chamber)
	if !found {
		http.Error(w, "Chamber not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, ChamberResponse{
		ReportID:      report.ID,
		State:         report.State,
		GeneratedAt:   report.GeneratedAt,
		ChamberReport: section,
	})
}

// GetLegislator handles GET /api/scorecard/{chamber}/{legislatorID}
func (h *ScorecardHandler) GetLegislator(w http.ResponseWriter, r *http.Request) {
	chamber, err := legislature.ParseChamber(chi.URLParam(r, "chamber"))
	if err != nil {
		http.Error(w, "Invalid chamber (use upper or lower)", http.StatusBadRequest)
		return
	}
	legislatorID := chi.URLParam(r, "*")
	if legislatorID == "" {
		http.Error(w, "Missing legislator ID", http.StatusBadRequest)
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}
	section, found := report.Chamber(chamber)
	if !found {
		http.Error(w, "Chamber not found", http.StatusNotFound)
		return
	}
	row, found := section.Row(legislatorID)
	if !found {
		http.Error(w, "Legislator not found", http.StatusNotFound)
		return
	}

	columns := make([]string, 0, len(section.Columns))
	for _, col := range section.Columns {
		columns = append(columns, col.Label())
	}

	respondJSON(w, http.StatusOK, LegislatorResponse{
		ReportID:    report.ID,
		State:       report.State,
		GeneratedAt: report.GeneratedAt,
		Chamber:     chamber,
		Columns:     columns,
		Row:         row,
	})
}

// Export handles GET /api/scorecard/export. The body is rendered in full
// before any byte is sent, so a failed render never yields a truncated file.
func (h *ScorecardHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	report, ok := h.report(w, r.WithContext(ctx))
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf); err != nil {
		slog.Error("Failed to render scorecard CSV", "report_id", report.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=scorecard-%s.csv", report.State))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// report fetches the current report and writes the error response on failure
func (h *ScorecardHandler) report(w http.ResponseWriter, r *http.Request) (*scorecard.Report, bool) {
	report, err := h.reports.Report(r.Context())
	if err == nil {
		return report, true
	}

	slog.Error("Failed to generate scorecard", "path", r.URL.Path, "error", err)

	var rateLimited *openstates.RateLimitError
	var notFound *scorecard.VoteNotFoundError
	var sourceErr *scorecard.DataSourceError
	switch {
	case errors.As(err, &rateLimited):
		if rateLimited.RetryAfter != "" {
			w.Header().Set("Retry-After", rateLimited.RetryAfter)
		}
		http.Error(w, "Data source rate limited, try again later", http.StatusServiceUnavailable)
	case errors.As(err, &notFound):
		http.Error(w, notFound.Error(), http.StatusInternalServerError)
	case errors.As(err, &sourceErr):
		http.Error(w, "Data source unavailable", http.StatusBadGateway)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Scorecard generation timed out", http.StatusGatewayTimeout)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
	return nil, false
}
