package scorecard

import "fmt"

// MalformedInputError reports a tracked-vote line that could not be parsed
type MalformedInputError struct {
	Line   int // 1-based
	Text   string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed tracked vote on line %d (%q): %s", e.Line, e.Text, e.Reason)
}

// DataSourceError wraps a failed or malformed response from the legislative data source
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source: %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// VoteNotFoundError means a tracked vote id does not exist on its bill.
// This is an error in the tracked-vote file, not a transient condition.
type VoteNotFoundError struct {
	Session    string
	BillNumber string
	VoteID     string
}

func (e *VoteNotFoundError) Error() string {
	return fmt.Sprintf("vote %s not found on bill %s (%s)", e.VoteID, e.BillNumber, e.Session)
}
