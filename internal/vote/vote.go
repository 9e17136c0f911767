// Package vote implements the consensus algorithms that reduce one
// iteration's version answers to a single value, a registry that resolves
// algorithms by name, and the runner and analysis built on top of them.
//
// Every algorithm is a Func. None of them mutate their input.
package vote

import (
	"fmt"
	"slices"

	"github.com/nvandessel/voteanalysis/internal/models"
)

// Func derives one consensus answer from one iteration's results.
type Func func(results []models.IterationResult) (float64, error)

// Picker chooses uniformly among n tied candidates.
// models.RandomSource and *rand.Rand satisfy it.
type Picker interface {
	IntN(n int) int
}

// Average returns the arithmetic mean of the reported answers.
func Average(results []models.IterationResult) (float64, error) {
	if len(results) == 0 {
		return 0, fmt.Errorf("average: %w", models.ErrEmptyInput)
	}
	var sum float64
	for _, r := range results {
		sum += r.Answer
	}
	return sum / float64(len(results)), nil
}

// Median returns the median of the reported answers. With an even count it is
// the mean of the two middle values.
func Median(results []models.IterationResult) (float64, error) {
	n := len(results)
	if n == 0 {
		return 0, fmt.Errorf("median: %w", models.ErrEmptyInput)
	}
	answers := make([]float64, n)
	for i, r := range results {
		answers[i] = r.Answer
	}
	slices.Sort(answers)
	if n%2 == 1 {
		return answers[n/2], nil
	}
	return (answers[n/2-1] + answers[n/2]) / 2, nil
}
