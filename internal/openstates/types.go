package openstates

import (
	"fmt"
	"strings"

	"github.com/skridlevsky/legiscore/internal/legislature"
)

// Pagination is the paging block of list responses
type Pagination struct {
	PerPage    int `json:"per_page"`
	Page       int `json:"page"`
	MaxPage    int `json:"max_page"`
	TotalItems int `json:"total_items"`
}

// PeopleResponse is a page of GET /people
type PeopleResponse struct {
	Results    []Person   `json:"results"`
	Pagination Pagination `json:"pagination"`
}

// Person represents a legislator from the Open States API
type Person struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Party       string `json:"party"`
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	CurrentRole *struct {
		Title             string `json:"title"`
		OrgClassification string `json:"org_classification"`
		District          string `json:"district"`
		DivisionID        string `json:"division_id"`
	} `json:"current_role"`
	OtherIdentifiers []struct {
		Scheme     string `json:"scheme"`
		Identifier string `json:"identifier"`
	} `json:"other_identifiers"`
}

// Member converts the API record, failing when required fields are absent
func (p Person) Member() (legislature.Member, error) {
	if p.CurrentRole == nil {
		return legislature.Member{}, fmt.Errorf("person %q has no current_role", p.ID)
	}

	ids := []string{p.ID}
	for _, other := range p.OtherIdentifiers {
		if other.Identifier != "" {
			ids = append(ids, other.Identifier)
		}
	}

	m := legislature.Member{
		ID:        p.ID,
		Name:      p.Name,
		FirstName: p.GivenName,
		LastName:  p.FamilyName,
		Party:     p.Party,
		District:  p.CurrentRole.District,
		AllIDs:    ids,
	}
	if err := m.Validate(); err != nil {
		return legislature.Member{}, err
	}
	return m, nil
}

// Bill represents GET /bills/{jurisdiction}/{session}/{bill_id}?include=votes
type Bill struct {
	ID         string      `json:"id"`
	Identifier string      `json:"identifier"`
	Session    string      `json:"session"`
	Votes      []VoteEvent `json:"votes"`
}

// VoteEvent is one roll call on a bill
type VoteEvent struct {
	ID           string `json:"id"`
	MotionText   string `json:"motion_text"`
	StartDate    string `json:"start_date"`
	Result       string `json:"result"`
	Organization *struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Classification string `json:"classification"`
	} `json:"organization"`
	Votes []PersonVote `json:"votes"`
}

// PersonVote is an individual's position in a roll call.
// Voter is null when Open States could not match the name to a person.
type PersonVote struct {
	Option    string `json:"option"` // yes, no, absent, abstain, excused, not voting, other
	VoterName string `json:"voter_name"`
	Voter     *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"voter"`
}

// Record converts the API record. A bill can carry committee votes next to
// floor votes, so an unrecognised organization is kept as-is in Chamber and
// only rejected if that vote is the one being scored.
func (v VoteEvent) Record() (legislature.VoteRecord, error) {
	if v.ID == "" {
		return legislature.VoteRecord{}, fmt.Errorf("vote record is missing id")
	}

	record := legislature.VoteRecord{
		ID:     v.ID,
		Motion: v.MotionText,
	}
	if v.Organization != nil {
		chamber, err := legislature.ParseChamber(v.Organization.Classification)
		if err != nil {
			chamber = legislature.Chamber(v.Organization.Classification)
		}
		record.Chamber = chamber
	}
	for _, pv := range v.Votes {
		if pv.Voter == nil || pv.Voter.ID == "" {
			continue
		}
		switch strings.ToLower(pv.Option) {
		case "yes":
			record.Yes = append(record.Yes, pv.Voter.ID)
		case "no":
			record.No = append(record.No, pv.Voter.ID)
		}
	}

	return record, nil
}

// JurisdictionID returns the OCD jurisdiction id for a two-letter state code
func JurisdictionID(state string) string {
	return fmt.Sprintf("ocd-jurisdiction/country:us/state:%s/government", strings.ToLower(state))
}
