package scorecard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CastValue is a legislator's recorded position on one vote
type CastValue string

const (
	Yes   CastValue = "Y"
	No    CastValue = "N"
	Other CastValue = "O" // absent, abstained, excused or not yet seated
	// NotApplicable marks a column with no data for the legislator,
	// e.g. a vote taken in the other chamber.
	NotApplicable CastValue = "NA"
)

// Voted reports whether the value is an actual Yes or No
func (c CastValue) Voted() bool {
	return c == Yes || c == No
}

// TrackedVote is one roll call the scorecard grades legislators on
type TrackedVote struct {
	Session    string    `json:"session"`
	BillNumber string    `json:"billNumber"`
	VoteID     string    `json:"voteId"`
	Preferred  CastValue `json:"preferred"`
	Weight     int       `json:"weight"`
}

// Label is the report column header for the vote
func (v TrackedVote) Label() string {
	return fmt.Sprintf("%s (%s)", v.BillNumber, v.Session)
}

const trackedVoteFields = 5

// LoadTrackedVotes parses the tracked-vote format:
//
//	# comment
//	session,bill_number,vote_id,preferred_position,weight
//
// Votes are returned in input order, which is the report's column order.
func LoadTrackedVotes(r io.Reader) ([]TrackedVote, error) {
	var votes []TrackedVote
	seen := make(map[string]int)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		vote, err := parseTrackedVote(line)
		if err != nil {
			return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: err.Error()}
		}
		if first, dup := seen[vote.VoteID]; dup {
			return nil, &MalformedInputError{
				Line:   lineNo,
				Text:   line,
				Reason: fmt.Sprintf("vote id %s already tracked on line %d", vote.VoteID, first),
			}
		}
		seen[vote.VoteID] = lineNo
		votes = append(votes, vote)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracked votes: %w", err)
	}

	return votes, nil
}

func parseTrackedVote(line string) (TrackedVote, error) {
	fields := strings.Split(line, ",")
	if len(fields) < trackedVoteFields {
		return TrackedVote{}, fmt.Errorf("expected %d fields, got %d", trackedVoteFields, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	vote := TrackedVote{
		Session:    fields[0],
		BillNumber: fields[1],
		VoteID:     fields[2],
	}
	if vote.Session == "" || vote.BillNumber == "" || vote.VoteID == "" {
		return TrackedVote{}, fmt.Errorf("session, bill number and vote id are required")
	}

	switch CastValue(strings.ToUpper(fields[3])) {
	case Yes:
		vote.Preferred = Yes
	case No:
		vote.Preferred = No
	default:
		return TrackedVote{}, fmt.Errorf("preferred position must be Y or N, got %q", fields[3])
	}

	weight, err := strconv.Atoi(fields[4])
	if err != nil || weight <= 0 {
		return TrackedVote{}, fmt.Errorf("weight must be a positive integer, got %q", fields[4])
	}
	vote.Weight = weight

	return vote, nil
}

// LoadTrackedVotesFile opens path and parses it with LoadTrackedVotes
func LoadTrackedVotesFile(path string) ([]TrackedVote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracked votes: %w", err)
	}
	defer f.Close()

	return LoadTrackedVotes(f)
}
