package scorecard

import (
	"context"

	"github.com/skridlevsky/legiscore/internal/legislature"
)

// fakeSource serves canned rosters and bill votes and records the calls made
type fakeSource struct {
	rosters   map[legislature.Chamber][]legislature.Member
	bills     map[string][]legislature.VoteRecord // "session/bill" -> records
	rosterErr error
	billErr   error

	calls []string
}

func billKey(session, bill string) string {
	return session + "/" + bill
}

func (f *fakeSource) FetchRoster(ctx context.Context, state string, chamber legislature.Chamber) ([]legislature.Member, error) {
	f.calls = append(f.calls, "roster:"+string(chamber))
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return f.rosters[chamber], nil
}

func (f *fakeSource) FetchBillVotes(ctx context.Context, state, session, billID string) ([]legislature.VoteRecord, error) {
	f.calls = append(f.calls, "bill:"+billKey(session, billID))
	if f.billErr != nil {
		return nil, f.billErr
	}
	return f.bills[billKey(session, billID)], nil
}

// newFixtureSource returns a two-chamber state with one senate and one house vote
func newFixtureSource() *fakeSource {
	return &fakeSource{
		rosters: map[legislature.Chamber][]legislature.Member{
			legislature.Upper: {
				{ID: "ocd-person/s1", Name: "Ann Senator", Party: "Republican", District: "1", AllIDs: []string{"KSL000001"}},
				{ID: "ocd-person/s2", Name: "Bob Senator", Party: "Democratic", District: "2"},
			},
			legislature.Lower: {
				{ID: "ocd-person/h1", Name: "Cat Rep", Party: "Republican", District: "10"},
				{ID: "ocd-person/h2", Name: "Dan Rep", Party: "Democratic", District: "11", AllIDs: []string{"KSL000099"}},
				{ID: "ocd-person/h3", Name: "Eve Rep", Party: "Independent", District: "12"},
			},
		},
		bills: map[string][]legislature.VoteRecord{
			billKey("2023", "HB 100"): {
				{ID: "V0", Chamber: legislature.Lower, Yes: []string{"ocd-person/h1"}},
				{ID: "V1", Chamber: legislature.Lower, Yes: []string{"ocd-person/h1"}, No: []string{"KSL000099"}},
			},
			billKey("2023", "SB 5"): {
				{ID: "V2", Chamber: legislature.Upper, Yes: []string{"ocd-person/s2"}, No: []string{"KSL000001"}},
			},
		},
	}
}
