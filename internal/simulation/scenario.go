package simulation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/models"
)

// Scenario describes a module and its versions in YAML.
//
//	name: sorting
//	round_to: 2
//	min_out_val: 100
//	max_out_val: 1000
//	versions:
//	  - name: quick
//	    const_coordinates: [1, 0.5]
//	    dynamic_intervals: [{min: 0, max: 1}]
//	    reliability: 0.95
//	  - name: merge
//	    const_coordinates: [1, 0.7]
//	    dynamic_intervals: [{min: 0, max: 1}]
//	    reliability_interval: {min: 0.8, max: 0.99}
type Scenario struct {
	Name      string        `yaml:"name" json:"name"`
	RoundTo   *int          `yaml:"round_to,omitempty" json:"round_to,omitempty"`
	MinOutVal *float64      `yaml:"min_out_val,omitempty" json:"min_out_val,omitempty"`
	MaxOutVal *float64      `yaml:"max_out_val,omitempty" json:"max_out_val,omitempty"`
	Versions  []VersionSpec `yaml:"versions" json:"versions"`
}

// VersionSpec describes one version of a scenario. Exactly one of Reliability
// and ReliabilityInterval should be set; an interval is sampled uniformly.
type VersionSpec struct {
	Name                string            `yaml:"name" json:"name"`
	ConstCoordinates    []float64         `yaml:"const_coordinates" json:"const_coordinates"`
	DynamicCoordinates  []float64         `yaml:"dynamic_coordinates,omitempty" json:"dynamic_coordinates,omitempty"`
	DynamicIntervals    []models.Interval `yaml:"dynamic_intervals,omitempty" json:"dynamic_intervals,omitempty"`
	Reliability         *float64          `yaml:"reliability,omitempty" json:"reliability,omitempty"`
	ReliabilityInterval *models.Interval  `yaml:"reliability_interval,omitempty" json:"reliability_interval,omitempty"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return &s, nil
}

// Build turns the scenario into a module. Dynamic coordinates and interval
// reliabilities are drawn from src.
func (s *Scenario) Build(src models.RandomSource) (*models.Module, error) {
	roundTo := constants.DefaultRoundTo
	if s.RoundTo != nil {
		roundTo = *s.RoundTo
	}
	m := models.NewModule(s.Name, roundTo)
	if s.MinOutVal != nil {
		m.MinOutVal = *s.MinOutVal
	}
	if s.MaxOutVal != nil {
		m.MaxOutVal = *s.MaxOutVal
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}

	for i, spec := range s.Versions {
		if _, err := spec.AddTo(m, src); err != nil {
			return nil, fmt.Errorf("scenario %q: version %d: %w", s.Name, i, err)
		}
	}
	return m, nil
}

// AddTo builds the described version and appends it to m. Explicit dynamic
// coordinates take precedence over dynamic intervals.
func (spec VersionSpec) AddTo(m *models.Module, src models.RandomSource) (*models.Version, error) {
	v, err := spec.build(src, m.RoundTo)
	if err != nil {
		return nil, err
	}
	intervals := spec.DynamicIntervals
	if len(spec.DynamicCoordinates) > 0 {
		intervals = nil
	}
	if err := m.AddVersion(v, intervals, src); err != nil {
		return nil, err
	}
	return v, nil
}

func (spec VersionSpec) build(src models.RandomSource, roundTo int) (*models.Version, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: version name is required", models.ErrInvalidInput)
	}
	v := &models.Version{
		Name:               spec.Name,
		ConstCoordinates:   append([]float64(nil), spec.ConstCoordinates...),
		DynamicCoordinates: append([]float64(nil), spec.DynamicCoordinates...),
	}
	switch {
	case spec.Reliability != nil:
		if err := v.SetReliability(*spec.Reliability); err != nil {
			return nil, err
		}
	case spec.ReliabilityInterval != nil:
		iv := spec.ReliabilityInterval
		if err := v.GenerateReliability(src, iv.Min, iv.Max, roundTo); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: version %q needs reliability or reliability_interval", models.ErrInvalidInput, spec.Name)
	}
	return v, nil
}
