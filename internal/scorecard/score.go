package scorecard

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ScoreUndefined is rendered in place of a score when a legislator cast no
// Yes or No vote on any tracked vote
const ScoreUndefined = "-"

// Score is the weighted share of tracked votes cast in the preferred direction
type Score struct {
	Right    int
	Possible int
}

// Defined reports whether any weight was possible
func (s Score) Defined() bool {
	return s.Possible > 0
}

// Value is Right/Possible rounded to three decimals, or 0 when undefined
func (s Score) Value() float64 {
	if !s.Defined() {
		return 0
	}
	// FormatFloat rounds the exact quotient, so a tie at the fourth
	// decimal goes to even (1/16 -> 0.062)
	rounded := strconv.FormatFloat(float64(s.Right)/float64(s.Possible), 'f', 3, 64)
	v, _ := strconv.ParseFloat(rounded, 64)
	return v
}

// String renders the score with at least one fractional digit ("0.4", "1.0")
func (s Score) String() string {
	if !s.Defined() {
		return ScoreUndefined
	}
	out := strconv.FormatFloat(s.Value(), 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

// MarshalJSON emits the numeric value, or null when undefined
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value())
}

// Row is one legislator's line in a chamber report
type Row struct {
	LegislatorID  string      `json:"legislatorId"`
	District      string      `json:"district"`
	Name          string      `json:"name"`
	Party         string      `json:"party"`
	Casts         []CastValue `json:"casts"`
	Score         Score       `json:"score"`
	TotalRight    int         `json:"totalRight"`
	TotalPossible int         `json:"totalPossible"`
	Grade         string      `json:"grade"`
}

// ScoreLegislator grades one legislator against the report columns.
// Any Yes or No counts toward the possible weight whether or not it matches
// the preferred position; Other and NA never do.
func ScoreLegislator(l *Legislator, columns []ResolvedVote, scale GradeScale) Row {
	row := Row{
		LegislatorID: l.ID,
		District:     l.District,
		Name:         l.Name,
		Party:        l.Party,
		Casts:        make([]CastValue, len(columns)),
	}

	var score Score
	for i, col := range columns {
		cast, ok := l.Votes[col.VoteID]
		if !ok {
			cast = NotApplicable
		}
		row.Casts[i] = cast

		if cast.Voted() {
			score.Possible += col.Weight
		}
		if cast == col.Preferred {
			score.Right += col.Weight
		}
	}

	row.Score = score
	row.TotalRight = score.Right
	row.TotalPossible = score.Possible
	row.Grade = scale.Grade(score)
	return row
}
