package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skridlevsky/legiscore/internal/legislature"
	"github.com/skridlevsky/legiscore/internal/openstates"
	"github.com/skridlevsky/legiscore/internal/scorecard"
)

type fakeReports struct {
	report  *scorecard.Report
	tracked []scorecard.TrackedVote
	err     error
	calls   int
}

func (f *fakeReports) Report(context.Context) (*scorecard.Report, error) {
	f.calls++
	return f.report, f.err
}

func (f *fakeReports) Tracked() []scorecard.TrackedVote {
	return f.tracked
}

type fakeDB struct{ err error }

func (f fakeDB) Health(context.Context) error { return f.err }

func testReport() *scorecard.Report {
	hb := scorecard.ResolvedVote{
		TrackedVote: scorecard.TrackedVote{Session: "2023", BillNumber: "HB 100", VoteID: "V0", Preferred: scorecard.Yes, Weight: 1},
		Chamber:     legislature.Lower,
	}
	sb := scorecard.ResolvedVote{
		TrackedVote: scorecard.TrackedVote{Session: "2023", BillNumber: "SB 5", VoteID: "V2", Preferred: scorecard.No, Weight: 2},
		Chamber:     legislature.Upper,
	}
	return &scorecard.Report{
		ID:          "run-1",
		State:       "ks",
		GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Scale:       scorecard.DefaultGradeScale(),
		Chambers: []scorecard.ChamberReport{
			{
				Chamber: legislature.Upper,
				Columns: []scorecard.ResolvedVote{sb},
				Rows: []scorecard.Row{
					{LegislatorID: "ocd-person/s1", District: "1", Name: "Smith, Ann", Party: "Republican",
						Casts: []scorecard.CastValue{scorecard.No}, Score: scorecard.Score{Right: 2, Possible: 2},
						TotalRight: 2, TotalPossible: 2, Grade: "A"},
				},
			},
			{
				Chamber: legislature.Lower,
				Columns: []scorecard.ResolvedVote{hb},
				Rows: []scorecard.Row{
					{LegislatorID: "ocd-person/h1", District: "7", Name: "Jones", Party: "Democratic",
						Casts: []scorecard.CastValue{scorecard.Other}, Grade: "N/A"},
				},
			},
		},
	}
}

func newTestRouter(t *testing.T, reports ReportSource, db HealthChecker) http.Handler {
	t.Helper()
	result := NewRouter(&RouterConfig{Database: db, Reports: reports, CORSAll: true})
	t.Cleanup(result.RateLimiters.Stop)
	return result.Router
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no database", nil, http.StatusOK, `"status":"ok"`},
		{"healthy database", fakeDB{}, http.StatusOK, `"database":"healthy"`},
		{"unhealthy database", fakeDB{err: errors.New("down")}, http.StatusServiceUnavailable, `"status":"degraded"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestRouter(t, &fakeReports{}, tt.db), "/api/health")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("body %q missing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGetScorecard(t *testing.T) {
	reports := &fakeReports{report: testReport()}
	rec := get(t, newTestRouter(t, reports, nil), "/api/scorecard")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		ID       string `json:"id"`
		State    string `json:"state"`
		Chambers []struct {
			Chamber string `json:"chamber"`
			Rows    []struct {
				LegislatorID string   `json:"legislatorId"`
				Score        *float64 `json:"score"`
				Grade        string   `json:"grade"`
			} `json:"rows"`
		} `json:"chambers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != "run-1" || body.State != "ks" || len(body.Chambers) != 2 {
		t.Fatalf("body = %+v", body)
	}
	upper := body.Chambers[0].Rows[0]
	if upper.Score == nil || *upper.Score != 1 || upper.Grade != "A" {
		t.Fatalf("upper row = %+v", upper)
	}
	lower := body.Chambers[1].Rows[0]
	if lower.Score != nil || lower.Grade != "N/A" {
		t.Fatalf("lower row should have null score, got %+v", lower)
	}
}

func TestGetChamber(t *testing.T) {
	h := newTestRouter(t, &fakeReports{report: testReport()}, nil)

	rec := get(t, h, "/api/scorecard/house")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body ChamberResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ReportID != "run-1" || body.ChamberReport == nil || body.Chamber != legislature.Lower {
		t.Fatalf("body = %+v", body)
	}

	rec = get(t, h, "/api/scorecard/judiciary")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown chamber status = %d, want 400", rec.Code)
	}
}

func TestGetLegislator(t *testing.T) {
	h := newTestRouter(t, &fakeReports{report: testReport()}, nil)

	rec := get(t, h, "/api/scorecard/upper/ocd-person/s1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Chamber      string   `json:"chamber"`
		Columns      []string `json:"columns"`
		LegislatorID string   `json:"legislatorId"`
		Name         string   `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.LegislatorID != "ocd-person/s1" || body.Chamber != "upper" || body.Name != "Smith, Ann" {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Columns) != 1 || body.Columns[0] != "SB 5 (2023)" {
		t.Fatalf("columns = %v", body.Columns)
	}

	if rec := get(t, h, "/api/scorecard/upper/ocd-person/h1"); rec.Code != http.StatusNotFound {
		t.Fatalf("wrong-chamber lookup status = %d, want 404", rec.Code)
	}
	if rec := get(t, h, "/api/scorecard/senators/ocd-person/s1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad chamber status = %d, want 400", rec.Code)
	}
}

func TestExport(t *testing.T) {
	report := testReport()
	h := newTestRouter(t, &fakeReports{report: report}, nil)

	rec := get(t, h, "/api/scorecard/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Content-Type = %q", ct)
	}

	var want bytes.Buffer
	if err := report.WriteCSV(&want); err != nil {
		t.Fatal(err)
	}
	if rec.Body.String() != want.String() {
		t.Fatalf("export body differs from CLI rendering:\n%s\nwant:\n%s", rec.Body.String(), want.String())
	}
	if !strings.Contains(rec.Body.String(), `"Smith, Ann"`) {
		t.Fatalf("name with comma not quoted: %s", rec.Body.String())
	}
}

func TestExportRateLimited(t *testing.T) {
	h := newTestRouter(t, &fakeReports{report: testReport()}, nil)

	for i := 0; i < 5; i++ {
		if rec := get(t, h, "/api/scorecard/export"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
	rec := get(t, h, "/api/scorecard/export")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestScorecardErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			"data source",
			&scorecard.DataSourceError{Op: "fetch upper roster", Err: errors.New("connection refused")},
			http.StatusBadGateway,
		},
		{
			"rate limited",
			&scorecard.DataSourceError{Op: "fetch bill", Err: &openstates.RateLimitError{RetryAfter: "30"}},
			http.StatusServiceUnavailable,
		},
		{
			"vote not found",
			&scorecard.VoteNotFoundError{Session: "2023", BillNumber: "HB 1", VoteID: "nope"},
			http.StatusInternalServerError,
		},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &fakeReports{err: tt.err}, nil)
			for _, path := range []string{"/api/scorecard", "/api/scorecard/upper", "/api/scorecard/export"} {
				rec := get(t, h, path)
				if rec.Code != tt.wantStatus {
					t.Fatalf("%s status = %d, want %d", path, rec.Code, tt.wantStatus)
				}
			}
		})
	}
}

func TestRateLimitErrorSetsRetryAfter(t *testing.T) {
	err := &scorecard.DataSourceError{Op: "fetch bill", Err: &openstates.RateLimitError{RetryAfter: "30"}}
	rec := get(t, newTestRouter(t, &fakeReports{err: err}, nil), "/api/scorecard")
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestCORSPreflight(t *testing.T) {
	result := NewRouter(&RouterConfig{Reports: &fakeReports{}, CORSOrigins: []string{"https://scorecard.example.org"}})
	t.Cleanup(result.RateLimiters.Stop)

	req := httptest.NewRequest(http.MethodOptions, "/api/scorecard", nil)
	req.Header.Set("Origin", "https://scorecard.example.org")
	rec := httptest.NewRecorder()
	result.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://scorecard.example.org" {
		t.Fatalf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/scorecard", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rec = httptest.NewRecorder()
	result.Router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin allowed: %q", got)
	}
}

func TestGetTracked(t *testing.T) {
	reports := &fakeReports{tracked: []scorecard.TrackedVote{
		{Session: "2023", BillNumber: "HB 100", VoteID: "V0", Preferred: scorecard.Yes, Weight: 1},
		{Session: "2023", BillNumber: "SB 5", VoteID: "V2", Preferred: scorecard.No, Weight: 2},
	}}
	rec := get(t, newTestRouter(t, reports, nil), "/api/scorecard/tracked")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body TrackedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || body.Votes[1].VoteID != "V2" || body.Votes[1].Preferred != scorecard.No {
		t.Fatalf("body = %+v", body)
	}
	if reports.calls != 0 {
		t.Fatalf("listing tracked votes generated a report")
	}
}

func TestRefresh(t *testing.T) {
	refreshed := 0
	result := NewRouter(&RouterConfig{
		Reports:    &fakeReports{report: testReport()},
		AdminToken: "s3cret",
		Refresh:    func() { refreshed++ },
	})
	t.Cleanup(result.RateLimiters.Stop)

	tests := []struct {
		name       string
		auth       string
		wantStatus int
		wantCalls  int
	}{
		{"missing token", "", http.StatusUnauthorized, 0},
		{"wrong token", "Bearer nope", http.StatusUnauthorized, 0},
		{"valid token", "Bearer s3cret", http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refreshed = 0
			req := httptest.NewRequest(http.MethodPost, "/api/scorecard/refresh", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			result.Router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if refreshed != tt.wantCalls {
				t.Fatalf("refresh called %d times, want %d", refreshed, tt.wantCalls)
			}
		})
	}
}

func TestRefreshDisabledWithoutToken(t *testing.T) {
	result := NewRouter(&RouterConfig{
		Reports: &fakeReports{report: testReport()},
		Refresh: func() { t.Fatal("refresh must not be reachable without a token") },
	})
	t.Cleanup(result.RateLimiters.Stop)

	req := httptest.NewRequest(http.MethodPost, "/api/scorecard/refresh", nil)
	rec := httptest.NewRecorder()
	result.Router.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Fatalf("status = %d, refresh should not be mounted", rec.Code)
	}
}
