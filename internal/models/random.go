package models

import (
	"math"
	"math/rand/v2"
	"time"
)

// RandomSource is the subset of *rand.Rand used by the simulation and the vote
// tie-breakers. Tests substitute a scripted source to make draws reproducible.
type RandomSource interface {
	Float64() float64
	NormFloat64() float64
	IntN(n int) int
}

// NewRandomSource returns a PCG-backed source. A zero seed is replaced with the
// current time so unseeded runs differ from each other.
func NewRandomSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Uniform draws a value from [lo, hi] using src.
func Uniform(src RandomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// Normal draws from a normal distribution with the given mean and standard deviation.
func Normal(src RandomSource, mean, stdDev float64) float64 {
	return mean + math.Abs(stdDev)*src.NormFloat64()
}

// Round rounds v to the given number of digits after the decimal point.
// Negative digits are treated as zero.
func Round(v float64, digits int) float64 {
	if digits < 0 {
		digits = 0
	}
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
