package scorecard

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GradeThreshold awards Grade to any score at or above Min
type GradeThreshold struct {
	Grade string  `yaml:"grade" json:"grade"`
	Min   float64 `yaml:"min" json:"min"`
}

// GradeScale maps a score to a letter grade. Thresholds are checked in
// order, so they must be sorted by descending Min.
type GradeScale struct {
	Thresholds []GradeThreshold `yaml:"thresholds" json:"thresholds"`
	Fallback   string           `yaml:"fallback" json:"fallback"`
	NoData     string           `yaml:"no_data" json:"noData"`
}

// DefaultGradeScale is the conventional A-F scale in tenths
func DefaultGradeScale() GradeScale {
	return GradeScale{
		Thresholds: []GradeThreshold{
			{Grade: "A", Min: 0.9},
			{Grade: "B", Min: 0.8},
			{Grade: "C", Min: 0.7},
			{Grade: "D", Min: 0.6},
		},
		Fallback: "F",
		NoData:   "N/A",
	}
}

// Validate checks ordering and bounds
func (s GradeScale) Validate() error {
	if len(s.Thresholds) == 0 {
		return fmt.Errorf("grade scale: at least one threshold is required")
	}
	for i, t := range s.Thresholds {
		if strings.TrimSpace(t.Grade) == "" {
			return fmt.Errorf("grade scale: threshold %d has no grade", i)
		}
		if t.Min < 0 || t.Min > 1 {
			return fmt.Errorf("grade scale: %s min %v outside [0,1]", t.Grade, t.Min)
		}
		if i > 0 && t.Min >= s.Thresholds[i-1].Min {
			return fmt.Errorf("grade scale: %s min %v must be below %s min %v",
				t.Grade, t.Min, s.Thresholds[i-1].Grade, s.Thresholds[i-1].Min)
		}
	}
	if strings.TrimSpace(s.Fallback) == "" {
		return fmt.Errorf("grade scale: fallback grade is required")
	}
	if strings.TrimSpace(s.NoData) == "" {
		return fmt.Errorf("grade scale: no_data grade is required")
	}
	return nil
}

// Grade returns the letter for score, or NoData when the score is undefined
func (s GradeScale) Grade(score Score) string {
	if !score.Defined() {
		return s.NoData
	}
	v := score.Value()
	for _, t := range s.Thresholds {
		if v >= t.Min {
			return t.Grade
		}
	}
	return s.Fallback
}

// ParseGradeScale decodes a YAML grade scale. Omitted fallback and no_data
// values take the defaults.
func ParseGradeScale(data []byte) (GradeScale, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return GradeScale{}, fmt.Errorf("grade scale: payload is empty")
	}
	def := DefaultGradeScale()
	var scale GradeScale
	if err := yaml.Unmarshal(data, &scale); err != nil {
		return GradeScale{}, fmt.Errorf("grade scale: decode: %w", err)
	}
	if scale.Fallback == "" {
		scale.Fallback = def.Fallback
	}
	if scale.NoData == "" {
		scale.NoData = def.NoData
	}
	if err := scale.Validate(); err != nil {
		return GradeScale{}, err
	}
	return scale, nil
}

// LoadGradeScale reads a YAML grade scale from path. An empty path yields the default scale.
func LoadGradeScale(path string) (GradeScale, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultGradeScale(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return GradeScale{}, fmt.Errorf("grade scale: read %s: %w", path, err)
	}
	scale, err := ParseGradeScale(data)
	if err != nil {
		return GradeScale{}, fmt.Errorf("%s: %w", path, err)
	}
	return scale, nil
}
