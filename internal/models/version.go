package models

import (
	"fmt"
	"math"
)

// Interval is a closed [Min, Max] range used to draw a dynamic coordinate.
type Interval struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Version is one simulated software version of an N-version module.
//
// Its position in the diversity space is the constant coordinates (entered once,
// shared by every comparable version) followed by the dynamic coordinates
// (sampled per version from configured intervals).
type Version struct {
	// ID is assigned by the store. Zero means the version is not persisted yet.
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`

	ConstCoordinates   []float64 `json:"const_coordinates" yaml:"const_coordinates"`
	DynamicCoordinates []float64 `json:"dynamic_coordinates" yaml:"dynamic_coordinates"`

	// Reliability is the probability of producing the correct answer on an iteration.
	Reliability float64 `json:"reliability" yaml:"reliability"`
}

// NewVersion creates a version after validating its reliability.
func NewVersion(name string, constCoords []float64, reliability float64) (*Version, error) {
	v := &Version{Name: name, ConstCoordinates: append([]float64(nil), constCoords...)}
	if err := v.SetReliability(reliability); err != nil {
		return nil, err
	}
	return v, nil
}

// Persisted reports whether the store has assigned an identifier.
func (v *Version) Persisted() bool {
	return v.ID != 0
}

// SetReliability assigns the reliability, rejecting values outside [0, 1].
func (v *Version) SetReliability(r float64) error {
	if math.IsNaN(r) || r < 0 || r > 1 {
		return fmt.Errorf("version %q: %w (got %v)", v.Name, ErrReliabilityRange, r)
	}
	v.Reliability = r
	return nil
}

// GenerateReliability draws the reliability uniformly from [lo, hi] and rounds it.
func (v *Version) GenerateReliability(src RandomSource, lo, hi float64, roundTo int) error {
	return v.SetReliability(Round(Uniform(src, lo, hi), roundTo))
}

// GenerateDynamicCoordinates appends one rounded uniform draw per interval.
func (v *Version) GenerateDynamicCoordinates(src RandomSource, intervals []Interval, roundTo int) {
	for _, iv := range intervals {
		v.DynamicCoordinates = append(v.DynamicCoordinates, Round(Uniform(src, iv.Min, iv.Max), roundTo))
	}
}

// Coordinates returns a fresh slice with the constant coordinates followed by
// the dynamic ones.
func (v *Version) Coordinates() []float64 {
	out := make([]float64, 0, len(v.ConstCoordinates)+len(v.DynamicCoordinates))
	out = append(out, v.ConstCoordinates...)
	return append(out, v.DynamicCoordinates...)
}

// DistanceTo returns the Euclidean distance between two versions' coordinates.
func (v *Version) DistanceTo(other *Version) (float64, error) {
	return EuclideanDistance(v.Coordinates(), other.Coordinates())
}

func (v *Version) String() string {
	return fmt.Sprintf("%d. %s [%v] %v", v.ID, v.Name, v.Reliability, v.Coordinates())
}

// EuclideanDistance returns the distance between a and b. Vectors of different
// length cannot be compared.
func EuclideanDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrCoordinateMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
