package legislature

import (
	"context"
	"fmt"
	"strings"
)

// Chamber identifies one body of a bicameral legislature
type Chamber string

const (
	Upper Chamber = "upper"
	Lower Chamber = "lower"
)

// Chambers lists the chambers in report order
var Chambers = []Chamber{Upper, Lower}

// ParseChamber accepts "upper"/"lower" plus the common senate/house aliases
func ParseChamber(s string) (Chamber, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper", "senate":
		return Upper, nil
	case "lower", "house", "assembly":
		return Lower, nil
	}
	return "", fmt.Errorf("unsupported chamber %q", s)
}

// Label is the section title used in reports
func (c Chamber) Label() string {
	switch c {
	case Upper:
		return "Upper"
	case Lower:
		return "Lower"
	}
	return string(c)
}

// DistrictCode is the district column header: SD for senate districts, HD for house districts
func (c Chamber) DistrictCode() string {
	if c == Upper {
		return "SD"
	}
	return "HD"
}

// Valid reports whether c is one of the supported chambers
func (c Chamber) Valid() bool {
	return c == Upper || c == Lower
}

// Member is a currently serving legislator as returned by a Source
type Member struct {
	ID        string
	Name      string
	FirstName string
	LastName  string
	Party     string
	District  string
	// AllIDs holds every identifier the member has been known by, including ID.
	// Vote records from older sessions may reference any of them.
	AllIDs []string
}

// Validate checks the fields the scorecard depends on
func (m Member) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("member is missing id")
	}
	if m.Name == "" {
		return fmt.Errorf("member %s is missing name", m.ID)
	}
	if m.District == "" {
		return fmt.Errorf("member %s is missing district", m.ID)
	}
	return nil
}

// VoteRecord is one roll call on a bill
type VoteRecord struct {
	ID      string
	Chamber Chamber
	Motion  string
	Yes     []string // voter identifiers
	No      []string
}

// Validate checks that the record can be attributed to a chamber
func (v VoteRecord) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vote record is missing id")
	}
	if !v.Chamber.Valid() {
		return fmt.Errorf("vote %s has unsupported chamber %q", v.ID, v.Chamber)
	}
	return nil
}

// Source is the remote legislative data capability the scorecard reads from
type Source interface {
	// FetchRoster returns the currently serving members of one chamber
	FetchRoster(ctx context.Context, state string, chamber Chamber) ([]Member, error)
	// FetchBillVotes returns every roll call recorded for a bill in a session
	FetchBillVotes(ctx context.Context, state, session, billID string) ([]VoteRecord, error)
}

// NormalizeBillID inserts the space the data sources expect between a bill's
// letter prefix and its number ("HB100" -> "HB 100"). Anything else is returned trimmed.
func NormalizeBillID(billID string) string {
	s := strings.TrimSpace(billID)
	if strings.ContainsRune(s, ' ') {
		return s
	}
	i := 0
	for i < len(s) && ((s[i] >= 'A' && s[i] <= 'Z') || (s[i] >= 'a' && s[i] <= 'z')) {
		i++
	}
	if i == 0 || i == len(s) {
		return s
	}
	for j := i; j < len(s); j++ {
		if s[j] < '0' || s[j] > '9' {
			return s
		}
	}
	return strings.ToUpper(s[:i]) + " " + s[i:]
}
