package models

import "fmt"

// IterationResult is one version's reported answer for one iteration, together
// with the context the vote algorithms and the store need.
//
// Results produced by one generate run share VersionCoordinates (per version)
// and ConnectivityMatrix backing arrays. Treat both as read-only; copy before
// modifying.
type IterationResult struct {
	// ID is assigned by the store. Zero means the result is not persisted yet.
	ID int64 `json:"id,omitempty"`

	VersionID          int64     `json:"version_id"`
	VersionName        string    `json:"version_name"`
	VersionReliability float64   `json:"version_reliability"`
	VersionCoordinates []float64 `json:"version_coordinates"`

	// Answer is what the version reported; CorrectAnswer is the iteration's reference value.
	Answer        float64 `json:"version_answer"`
	CorrectAnswer float64 `json:"correct_answer"`

	ModuleID           int64       `json:"module_id"`
	ModuleName         string      `json:"module_name"`
	ConnectivityMatrix [][]float64 `json:"module_connectivity_matrix"`

	Iteration      int    `json:"module_iteration_num"`
	ExperimentName string `json:"experiment_name"`
}

// Correct reports whether the version answered the reference value.
func (r IterationResult) Correct() bool {
	return r.Answer == r.CorrectAnswer
}

func (r IterationResult) String() string {
	return fmt.Sprintf("%d. %s - %s (%v): Correct: %v; Version answer: %v",
		r.Iteration, r.ModuleName, r.VersionName, r.VersionReliability, r.CorrectAnswer, r.Answer)
}

// Iteration groups the results produced for one iteration with the reference
// value drawn for it. Results is empty when the module has fewer than two
// versions, since band membership is a property of pairs.
type Iteration struct {
	Index          int               `json:"index"`
	ReferenceValue float64           `json:"reference_value"`
	Results        []IterationResult `json:"results"`
}

// Answers returns the reported answers in result order.
func (it Iteration) Answers() []float64 {
	out := make([]float64, len(it.Results))
	for i, r := range it.Results {
		out[i] = r.Answer
	}
	return out
}
