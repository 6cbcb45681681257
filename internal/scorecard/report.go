package scorecard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/skridlevsky/legiscore/internal/legislature"
)

// ColumnMode selects which tracked votes appear as columns in a chamber section
type ColumnMode string

const (
	// ColumnsChamber shows only the votes taken in the section's chamber
	ColumnsChamber ColumnMode = "chamber"
	// ColumnsAll shows every tracked vote; other-chamber votes render as NA
	ColumnsAll ColumnMode = "all"
)

// ParseColumnMode validates a REPORT_COLUMNS value. Empty means ColumnsChamber.
func ParseColumnMode(s string) (ColumnMode, error) {
	switch ColumnMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ColumnsChamber:
		return ColumnsChamber, nil
	case ColumnsAll:
		return ColumnsAll, nil
	}
	return "", fmt.Errorf("invalid column mode %q (use chamber or all)", s)
}

// ChamberReport is one chamber's section of the scorecard
type ChamberReport struct {
	Chamber legislature.Chamber `json:"chamber"`
	Columns []ResolvedVote      `json:"columns"`
	Rows    []Row               `json:"rows"`
}

// Header returns the section's header record
func (c *ChamberReport) Header() []string {
	header := make([]string, 0, len(c.Columns)+3)
	header = append(header, c.Chamber.DistrictCode(), "Name", "Party")
	for _, col := range c.Columns {
		header = append(header, col.Label())
	}
	return header
}

// Row looks up a legislator's row by id
func (c *ChamberReport) Row(legislatorID string) (Row, bool) {
	for _, row := range c.Rows {
		if row.LegislatorID == legislatorID {
			return row, true
		}
	}
	return Row{}, false
}

// Report is the full scorecard for one state
type Report struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Scale       GradeScale      `json:"gradeScale"`
	Chambers    []ChamberReport `json:"chambers"`
}

// Chamber returns the section for c
func (r *Report) Chamber(c legislature.Chamber) (*ChamberReport, bool) {
	for i := range r.Chambers {
		if r.Chambers[i].Chamber == c {
			return &r.Chambers[i], true
		}
	}
	return nil, false
}

// BuildReport scores every legislator. Sections follow legislature.Chambers
// and rows keep roster order.
func BuildReport(rosters Rosters, resolved []ResolvedVote, scale GradeScale, mode ColumnMode) []ChamberReport {
	sections := make([]ChamberReport, 0, len(legislature.Chambers))
	for _, chamber := range legislature.Chambers {
		columns := columnsFor(chamber, resolved, mode)
		section := ChamberReport{
			Chamber: chamber,
			Columns: columns,
			Rows:    make([]Row, 0, len(rosters[chamber])),
		}
		for _, l := range rosters[chamber] {
			section.Rows = append(section.Rows, ScoreLegislator(l, columns, scale))
		}
		sections = append(sections, section)
	}
	return sections
}

func columnsFor(chamber legislature.Chamber, resolved []ResolvedVote, mode ColumnMode) []ResolvedVote {
	if mode == ColumnsAll {
		return append([]ResolvedVote(nil), resolved...)
	}
	columns := make([]ResolvedVote, 0, len(resolved))
	for _, v := range resolved {
		if v.Chamber == chamber {
			columns = append(columns, v)
		}
	}
	return columns
}

// WriteCSV renders the report: for each chamber a label line, a header line
// and one line per legislator. Fields containing commas or quotes are quoted.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	for i := range r.Chambers {
		section := &r.Chambers[i]
		if err := cw.Write([]string{section.Chamber.Label()}); err != nil {
			return fmt.Errorf("failed to write %s label: %w", section.Chamber, err)
		}
		if err := cw.Write(section.Header()); err != nil {
			return fmt.Errorf("failed to write %s header: %w", section.Chamber, err)
		}
		for _, row := range section.Rows {
			if err := cw.Write(csvRecord(row)); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", row.LegislatorID, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRecord(row Row) []string {
	record := make([]string, 0, len(row.Casts)+5)
	record = append(record, row.District, row.Name, row.Party)
	for _, cast := range row.Casts {
		record = append(record, string(cast))
	}
	return append(record, row.Score.String(), row.Grade)
}
