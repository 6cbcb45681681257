package scorecard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skridlevsky/legiscore/internal/legislature"
)

// ResolvedVote is a tracked vote together with the chamber its roll call was taken in
type ResolvedVote struct {
	TrackedVote
	Chamber legislature.Chamber `json:"chamber"`
}

// JoinVotes fetches each tracked vote's roll call, in order, and records a cast
// value on every legislator of the chamber that took the vote. The other
// chamber's roster is never touched.
func JoinVotes(ctx context.Context, src legislature.Source, state string, tracked []TrackedVote, rosters Rosters) ([]ResolvedVote, error) {
	resolved := make([]ResolvedVote, 0, len(tracked))

	for _, tv := range tracked {
		record, err := findVote(ctx, src, state, tv)
		if err != nil {
			return nil, err
		}

		AttributeVote(rosters[record.Chamber], record)
		resolved = append(resolved, ResolvedVote{TrackedVote: tv, Chamber: record.Chamber})

		slog.Debug("Vote joined",
			"vote_id", tv.VoteID,
			"bill", tv.BillNumber,
			"chamber", record.Chamber,
			"yes", len(record.Yes),
			"no", len(record.No),
		)
	}

	return resolved, nil
}

func findVote(ctx context.Context, src legislature.Source, state string, tv TrackedVote) (legislature.VoteRecord, error) {
	op := fmt.Sprintf("fetch votes for %s (%s)", tv.BillNumber, tv.Session)

	records, err := src.FetchBillVotes(ctx, state, tv.Session, legislature.NormalizeBillID(tv.BillNumber))
	if err != nil {
		return legislature.VoteRecord{}, &DataSourceError{Op: op, Err: err}
	}

	for _, record := range records {
		if record.ID != tv.VoteID {
			continue
		}
		if err := record.Validate(); err != nil {
			return legislature.VoteRecord{}, &DataSourceError{Op: op, Err: err}
		}
		return record, nil
	}

	return legislature.VoteRecord{}, &VoteNotFoundError{
		Session:    tv.Session,
		BillNumber: tv.BillNumber,
		VoteID:     tv.VoteID,
	}
}

// AttributeVote sets the record's cast value on each legislator: Yes when any
// yes-voter id is one of the legislator's identifiers, else No on a no-voter
// match, else Other.
func AttributeVote(legislators []*Legislator, record legislature.VoteRecord) {
	for _, l := range legislators {
		l.Votes[record.ID] = castFor(l, record)
	}
}

func castFor(l *Legislator, record legislature.VoteRecord) CastValue {
	for _, id := range record.Yes {
		if l.KnownAs(id) {
			return Yes
		}
	}
	for _, id := range record.No {
		if l.KnownAs(id) {
			return No
		}
	}
	return Other
}
