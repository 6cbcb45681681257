package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Data sources
const (
	SourceOpenStates = "openstates"
	SourcePostgres   = "postgres"
)

// Config holds application configuration
type Config struct {
	State      string
	DataSource string

	// Open States API
	OpenStatesAPIKey  string
	OpenStatesBaseURL string
	OpenStatesTimeout time.Duration
	BillCacheTTL      time.Duration

	// Bulk-data mirror
	DatabaseURL string
	DBMigrate   bool

	// Report
	OutputFile       string
	GradeScaleFile   string
	ReportColumns    string
	TrackedVotesFile string
	ReportCacheTTL   time.Duration

	Port        string
	Env         string
	CORSOrigins []string
	// AdminToken enables POST /api/scorecard/refresh when set
	AdminToken string
}

// Load reads configuration from environment variables.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	state := strings.ToLower(strings.TrimSpace(os.Getenv("STATE")))
	if state == "" {
		return nil, fmt.Errorf("STATE is required")
	}
	if len(state) != 2 || !isLetters(state) {
		return nil, fmt.Errorf("STATE must be a two-letter code, got %q", state)
	}

	cfg := &Config{
		State:      state,
		DataSource: strings.ToLower(getEnv("DATA_SOURCE", SourceOpenStates)),

		OpenStatesAPIKey:  os.Getenv("OPENSTATES_API_KEY"),
		OpenStatesBaseURL: getEnv("OPENSTATES_BASE_URL", "https://v3.openstates.org"),
		OpenStatesTimeout: getDuration("OPENSTATES_TIMEOUT", 30*time.Second),
		BillCacheTTL:      getDuration("BILL_CACHE_TTL", 10*time.Minute),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMigrate:   getBool("DB_MIGRATE", false),

		OutputFile:       getEnv("OUTPUT_FILE", "output.csv"),
		GradeScaleFile:   os.Getenv("GRADE_SCALE_FILE"),
		ReportColumns:    strings.ToLower(getEnv("REPORT_COLUMNS", "chamber")),
		TrackedVotesFile: os.Getenv("TRACKED_VOTES_FILE"),
		ReportCacheTTL:   getDuration("REPORT_CACHE_TTL", 15*time.Minute),

		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		CORSOrigins: getList("CORS_ORIGINS"),
		AdminToken:  os.Getenv("ADMIN_TOKEN"),
	}

	switch cfg.DataSource {
	case SourceOpenStates:
		if cfg.OpenStatesAPIKey == "" {
			return nil, fmt.Errorf("OPENSTATES_API_KEY is required when DATA_SOURCE=%s", SourceOpenStates)
		}
	case SourcePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", SourcePostgres)
		}
	default:
		return nil, fmt.Errorf("unknown DATA_SOURCE %q (want %s or %s)", cfg.DataSource, SourceOpenStates, SourcePostgres)
	}

	return cfg, nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getList splits a comma-separated variable, dropping empty entries
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
