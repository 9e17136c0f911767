package models

import (
	"fmt"
	"math"

	"github.com/nvandessel/voteanalysis/internal/constants"
)

// Module is an N-version programming module: a named set of versions plus the
// parameters used to generate their outputs.
type Module struct {
	// ID is assigned by the store. Zero means the module is not persisted yet.
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`

	// RoundTo is the number of digits kept after the decimal point.
	RoundTo   int     `json:"round_to" yaml:"round_to"`
	MinOutVal float64 `json:"min_out_val" yaml:"min_out_val"`
	MaxOutVal float64 `json:"max_out_val" yaml:"max_out_val"`

	// ConstCount and DynamicCount are fixed by the first version added.
	ConstCount   int `json:"const_count" yaml:"const_count"`
	DynamicCount int `json:"dynamic_count" yaml:"dynamic_count"`

	// DynamicIntervals holds, per version name, the intervals its dynamic
	// coordinates were drawn from.
	DynamicIntervals map[string][]Interval `json:"dynamic_intervals,omitempty" yaml:"dynamic_intervals,omitempty"`

	Versions []*Version `json:"versions,omitempty" yaml:"versions,omitempty"`
}

// NewModule creates a module with the default output range.
func NewModule(name string, roundTo int) *Module {
	return &Module{
		Name:             name,
		RoundTo:          roundTo,
		MinOutVal:        constants.DefaultMinOutVal,
		MaxOutVal:        constants.DefaultMaxOutVal,
		DynamicIntervals: make(map[string][]Interval),
	}
}

// Persisted reports whether the store has assigned an identifier.
func (m *Module) Persisted() bool {
	return m.ID != 0
}

// Validate checks the generation parameters.
func (m *Module) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: module name is required", ErrInvalidInput)
	}
	if m.RoundTo < 0 {
		return fmt.Errorf("%w: round_to must be >= 0, got %d", ErrInvalidInput, m.RoundTo)
	}
	if math.IsNaN(m.MinOutVal) || math.IsNaN(m.MaxOutVal) || math.IsInf(m.MinOutVal, 0) || math.IsInf(m.MaxOutVal, 0) {
		return fmt.Errorf("%w: output range must be finite", ErrInvalidInput)
	}
	if m.MinOutVal > m.MaxOutVal {
		return fmt.Errorf("%w: min_out_val %v exceeds max_out_val %v", ErrInvalidInput, m.MinOutVal, m.MaxOutVal)
	}
	return nil
}

// AddVersion appends v to the module. The first version fixes the constant and
// dynamic coordinate counts; later versions must match them. When v has no
// dynamic coordinates yet they are drawn from intervals using src.
func (m *Module) AddVersion(v *Version, intervals []Interval, src RandomSource) error {
	if v == nil {
		return fmt.Errorf("%w: nil version", ErrInvalidInput)
	}
	if len(m.Versions) == 0 && m.ConstCount == 0 && m.DynamicCount == 0 {
		m.ConstCount = len(v.ConstCoordinates)
		m.DynamicCount = len(intervals)
		if len(intervals) == 0 {
			m.DynamicCount = len(v.DynamicCoordinates)
		}
	}
	if len(v.ConstCoordinates) != m.ConstCount {
		return fmt.Errorf("version %q: %w: expected %d constant coordinates, got %d",
			v.Name, ErrCoordinateMismatch, m.ConstCount, len(v.ConstCoordinates))
	}
	if len(v.DynamicCoordinates) == 0 && len(intervals) != m.DynamicCount {
		return fmt.Errorf("version %q: %w: expected %d dynamic intervals, got %d",
			v.Name, ErrCoordinateMismatch, m.DynamicCount, len(intervals))
	}
	if v.Reliability < 0 || v.Reliability > 1 {
		return fmt.Errorf("version %q: %w", v.Name, ErrReliabilityRange)
	}

	for i, c := range v.ConstCoordinates {
		v.ConstCoordinates[i] = Round(c, m.RoundTo)
	}
	if len(v.DynamicCoordinates) == 0 {
		v.GenerateDynamicCoordinates(src, intervals, m.RoundTo)
	}
	if len(v.DynamicCoordinates) != m.DynamicCount {
		return fmt.Errorf("version %q: %w: expected %d dynamic coordinates, got %d",
			v.Name, ErrCoordinateMismatch, m.DynamicCount, len(v.DynamicCoordinates))
	}

	if len(intervals) > 0 {
		if m.DynamicIntervals == nil {
			m.DynamicIntervals = make(map[string][]Interval)
		}
		m.DynamicIntervals[v.Name] = append([]Interval(nil), intervals...)
	}
	m.Versions = append(m.Versions, v)
	return nil
}

func (m *Module) String() string {
	return fmt.Sprintf("id: %d\tname: %s\tround to: %d\tout range: [%v, %v]\tconst diversities count: %d\tdynamic diversities count: %d",
		m.ID, m.Name, m.RoundTo, m.MinOutVal, m.MaxOutVal, m.ConstCount, m.DynamicCount)
}
