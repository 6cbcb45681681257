package scorecard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skridlevsky/legiscore/internal/legislature"
)

// Legislator is a roster member plus the cast values joined onto them
type Legislator struct {
	legislature.Member
	Chamber legislature.Chamber
	Votes   map[string]CastValue // vote id -> cast value

	ids map[string]struct{}
}

// NewLegislator wraps a roster member with an empty vote mapping
func NewLegislator(m legislature.Member, chamber legislature.Chamber) *Legislator {
	ids := make(map[string]struct{}, len(m.AllIDs)+1)
	ids[m.ID] = struct{}{}
	for _, id := range m.AllIDs {
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	return &Legislator{
		Member:  m,
		Chamber: chamber,
		Votes:   make(map[string]CastValue),
		ids:     ids,
	}
}

// KnownAs reports whether id is any of the legislator's identifiers
func (l *Legislator) KnownAs(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// Rosters holds each chamber's legislators in data-source order
type Rosters map[legislature.Chamber][]*Legislator

// FetchRoster requests the active members of one chamber.
// Source failures and invalid records are returned as *DataSourceError.
func FetchRoster(ctx context.Context, src legislature.Source, state string, chamber legislature.Chamber) ([]*Legislator, error) {
	op := fmt.Sprintf("fetch %s roster for %s", chamber, state)

	members, err := src.FetchRoster(ctx, state, chamber)
	if err != nil {
		return nil, &DataSourceError{Op: op, Err: err}
	}

	legislators := make([]*Legislator, 0, len(members))
	for i, m := range members {
		if err := m.Validate(); err != nil {
			return nil, &DataSourceError{Op: op, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		legislators = append(legislators, NewLegislator(m, chamber))
	}

	slog.Debug("Roster fetched", "state", state, "chamber", chamber, "members", len(legislators))
	return legislators, nil
}

// FetchRosters fetches the upper roster and then the lower roster
func FetchRosters(ctx context.Context, src legislature.Source, state string) (Rosters, error) {
	rosters := make(Rosters, len(legislature.Chambers))
	for _, chamber := range legislature.Chambers {
		legislators, err := FetchRoster(ctx, src, state, chamber)
		if err != nil {
			return nil, err
		}
		rosters[chamber] = legislators
	}
	return rosters, nil
}
