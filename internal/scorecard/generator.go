package scorecard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skridlevsky/legiscore/internal/legislature"
)

// Generator runs the scorecard pipeline for one state:
// rosters, then each tracked vote in order, then scoring.
type Generator struct {
	Source  legislature.Source
	State   string
	Scale   GradeScale
	Columns ColumnMode

	// now is overridable in tests
	now func() time.Time
}

// NewGenerator validates the scale and column mode
func NewGenerator(src legislature.Source, state string, scale GradeScale, columns ColumnMode) (*Generator, error) {
	if src == nil {
		return nil, fmt.Errorf("data source is required")
	}
	if len(state) != 2 {
		return nil, fmt.Errorf("invalid state %q (expected two-letter code)", state)
	}
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseColumnMode(string(columns)); err != nil {
		return nil, err
	}
	return &Generator{
		Source:  src,
		State:   state,
		Scale:   scale,
		Columns: columns,
		now:     time.Now,
	}, nil
}

// Generate fetches and scores everything. Nothing is returned on any error,
// so callers never render a partial report.
func (g *Generator) Generate(ctx context.Context, tracked []TrackedVote) (*Report, error) {
	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "state", g.State)

	logger.Info("Fetching rosters")
	rosters, err := FetchRosters(ctx, g.Source, g.State)
	if err != nil {
		return nil, err
	}
	logger.Info("Rosters fetched",
		"upper", len(rosters[legislature.Upper]),
		"lower", len(rosters[legislature.Lower]),
	)

	logger.Info("Joining tracked votes", "votes", len(tracked))
	resolved, err := JoinVotes(ctx, g.Source, g.State, tracked, rosters)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:          runID,
		State:       g.State,
		GeneratedAt: g.clock().UTC(),
		Scale:       g.Scale,
		Chambers:    BuildReport(rosters, resolved, g.Scale, g.Columns),
	}
	logger.Info("Scorecard generated", "columns_mode", g.Columns)
	return report, nil
}

func (g *Generator) clock() time.Time {
	if g.now == nil {
		return time.Now()
	}
	return g.now()
}

// CachedGenerator memoizes the last report for a TTL. Generation holds the
// lock, so concurrent callers wait for a single run instead of fetching twice.
type CachedGenerator struct {
	gen     *Generator
	tracked []TrackedVote
	ttl     time.Duration

	mu      sync.Mutex
	report  *Report
	builtAt time.Time
}

// NewCachedGenerator wraps gen for a fixed tracked-vote list
func NewCachedGenerator(gen *Generator, tracked []TrackedVote, ttl time.Duration) *CachedGenerator {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedGenerator{
		gen:     gen,
		tracked: tracked,
		ttl:     ttl,
	}
}

// Report returns the cached report, regenerating it when expired
func (c *CachedGenerator) Report(ctx context.Context) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.report != nil && c.gen.clock().Sub(c.builtAt) <= c.ttl {
		return c.report, nil
	}

	report, err := c.gen.Generate(ctx, c.tracked)
	if err != nil {
		return nil, err
	}
	c.report = report
	c.builtAt = c.gen.clock()
	return report, nil
}

// Invalidate drops the cached report
func (c *CachedGenerator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.report = nil
}

// Tracked returns the tracked votes the generator scores
func (c *CachedGenerator) Tracked() []TrackedVote {
	return c.tracked
}
