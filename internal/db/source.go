package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/skridlevsky/legiscore/internal/legislature"
	"github.com/skridlevsky/legiscore/internal/openstates"
)

// Source reads rosters and roll calls from a restored Open States bulk dump
// (the opencivicdata_* tables). It implements legislature.Source.
type Source struct {
	db *sql.DB
}

// NewSource creates a mirror-backed source
func NewSource(db *sql.DB) *Source {
	return &Source{db: db}
}

// identifierSep joins a person's other identifiers in rosterQuery. It is the
// ASCII unit separator, which cannot occur in an identifier, unlike a comma.
const identifierSep = "\x1f"

const rosterQuery = `
	SELECT p.id, p.name, COALESCE(p.given_name, ''), COALESCE(p.family_name, ''),
		COALESCE(p.primary_party, ''), COALESCE(p.current_role->>'district', ''),
		COALESCE(string_agg(pi.identifier, E'\x1f' ORDER BY pi.identifier), '')
	FROM opencivicdata_person p
	LEFT JOIN opencivicdata_personidentifier pi ON pi.person_id = p.id
	WHERE p.current_jurisdiction_id = $1
	  AND p.current_role->>'org_classification' = $2
	GROUP BY p.id
	ORDER BY p.family_name, p.given_name, p.id
`

// FetchRoster returns the members currently holding a seat in chamber
func (s *Source) FetchRoster(ctx context.Context, state string, chamber legislature.Chamber) ([]legislature.Member, error) {
	rows, err := s.db.QueryContext(ctx, rosterQuery, openstates.JurisdictionID(state), string(chamber))
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	var members []legislature.Member
	for rows.Next() {
		var m legislature.Member
		var otherIDs string
		if err := rows.Scan(&m.ID, &m.Name, &m.FirstName, &m.LastName, &m.Party, &m.District, &otherIDs); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.AllIDs = []string{m.ID}
		for _, id := range strings.Split(otherIDs, identifierSep) {
			if id != "" {
				m.AllIDs = append(m.AllIDs, id)
			}
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	return members, nil
}

const billVotesQuery = `
	SELECT ve.id, COALESCE(o.classification, ''), COALESCE(ve.motion_text, ''),
		pv.option, pv.voter_id
	FROM opencivicdata_voteevent ve
	JOIN opencivicdata_bill b ON b.id = ve.bill_id
	JOIN opencivicdata_legislativesession s ON s.id = b.legislative_session_id
	LEFT JOIN opencivicdata_organization o ON o.id = ve.organization_id
	LEFT JOIN opencivicdata_personvote pv ON pv.vote_event_id = ve.id
	WHERE s.jurisdiction_id = $1
	  AND s.identifier = $2
	  AND upper(b.identifier) = upper($3)
	ORDER BY ve.start_date, ve.id, pv.id
`

// FetchBillVotes returns every roll call on a bill. A bill with no rows
// yields an empty slice; the caller reports the missing vote.
func (s *Source) FetchBillVotes(ctx context.Context, state, session, billID string) ([]legislature.VoteRecord, error) {
	rows, err := s.db.QueryContext(ctx, billVotesQuery, openstates.JurisdictionID(state), session, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill votes: %w", err)
	}
	defer rows.Close()

	var records []legislature.VoteRecord
	for rows.Next() {
		var voteID, classification, motion string
		var option, voterID sql.NullString
		if err := rows.Scan(&voteID, &classification, &motion, &option, &voterID); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}

		// rows are ordered by vote event, so a new id starts a new record
		if len(records) == 0 || records[len(records)-1].ID != voteID {
			chamber, err := legislature.ParseChamber(classification)
			if err != nil {
				chamber = legislature.Chamber(classification)
			}
			records = append(records, legislature.VoteRecord{ID: voteID, Chamber: chamber, Motion: motion})
		}
		if !voterID.Valid || voterID.String == "" {
			continue
		}

		current := &records[len(records)-1]
		switch strings.ToLower(option.String) {
		case "yes":
			current.Yes = append(current.Yes, voterID.String)
		case "no":
			current.No = append(current.No, voterID.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bill votes: %w", err)
	}

	return records, nil
}
