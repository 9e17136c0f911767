package vote

import (
	"math"
	"sort"

	"github.com/nvandessel/voteanalysis/internal/models"
)

// Report summarizes how well one algorithm recovered the reference values.
type Report struct {
	Algorithm  string `json:"algorithm"`
	Iterations int    `json:"iterations"`
	Correct    int    `json:"correct"`
	Failed     int    `json:"failed"`

	// Accuracy is Correct over Iterations. Failed iterations count as wrong.
	Accuracy float64 `json:"accuracy"`

	// MeanAbsError averages |consensus - reference| over iterations that did
	// not fail.
	MeanAbsError float64 `json:"mean_abs_error"`
}

// Tolerance is half a unit in the last place kept by roundTo.
func Tolerance(roundTo int) float64 {
	if roundTo < 0 {
		roundTo = 0
	}
	return 0.5 * math.Pow(10, -float64(roundTo))
}

// Analyze scores outcomes. A consensus counts as correct when it lies within
// Tolerance(roundTo) of the reference value.
func Analyze(algorithm string, outcomes []Outcome, roundTo int) Report {
	rep := Report{Algorithm: algorithm, Iterations: len(outcomes)}
	tol := Tolerance(roundTo)

	var absSum float64
	for _, o := range outcomes {
		if o.Failed() {
			rep.Failed++
			continue
		}
		diff := math.Abs(o.Consensus - o.CorrectAnswer)
		absSum += diff
		if diff <= tol {
			rep.Correct++
		}
	}
	if rep.Iterations > 0 {
		rep.Accuracy = float64(rep.Correct) / float64(rep.Iterations)
	}
	if voted := rep.Iterations - rep.Failed; voted > 0 {
		rep.MeanAbsError = absSum / float64(voted)
	}
	return rep
}

// Compare runs every named algorithm over iterations and returns their reports
// ordered by accuracy, best first. Equal accuracy falls back to lower mean
// absolute error, then name.
func (r *Runner) Compare(names []string, iterations []models.Iteration, roundTo int) ([]Report, error) {
	reports := make([]Report, 0, len(names))
	for _, name := range names {
		outcomes, err := r.Run(name, iterations)
		if err != nil {
			return nil, err
		}
		reports = append(reports, Analyze(name, outcomes, roundTo))
	}
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		if a.MeanAbsError != b.MeanAbsError {
			return a.MeanAbsError < b.MeanAbsError
		}
		return a.Algorithm < b.Algorithm
	})
	return reports, nil
}
