package vote

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/models"
)

// ErrUnknownAlgorithm is returned when a name is not registered.
var ErrUnknownAlgorithm = errors.New("unknown vote algorithm")

// Algorithm is a registered vote function.
type Algorithm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Vote        Func   `json:"-"`
}

// Registry maps algorithm names to vote functions. Registration happens at
// startup; lookups never load code.
type Registry struct {
	algorithms map[string]Algorithm
}

// NewRegistry returns a registry holding the built-in algorithms. The
// consensus algorithms settle ties with p.
func NewRegistry(p Picker) *Registry {
	r := &Registry{algorithms: make(map[string]Algorithm)}
	r.mustRegister(constants.AlgorithmAverage, "arithmetic mean of the answers", Average)
	r.mustRegister(constants.AlgorithmMedian, "median of the answers", Median)
	r.mustRegister(constants.AlgorithmClassic, "largest class of equal answers, random among ties",
		func(results []models.IterationResult) (float64, error) {
			return ClassicConsensus(results, p)
		})
	r.mustRegister(constants.AlgorithmModified, "largest class of equal answers, most diverse class among ties",
		func(results []models.IterationResult) (float64, error) {
			return DiversityAwareConsensus(results, p)
		})
	return r
}

// Register adds an algorithm. Names must be unique and non-empty.
func (r *Registry) Register(name, description string, fn Func) error {
	if name == "" {
		return fmt.Errorf("%w: algorithm name is required", models.ErrInvalidInput)
	}
	if fn == nil {
		return fmt.Errorf("%w: algorithm %q has no vote function", models.ErrInvalidInput, name)
	}
	if _, exists := r.algorithms[name]; exists {
		return fmt.Errorf("algorithm %q already registered", name)
	}
	r.algorithms[name] = Algorithm{Name: name, Description: description, Vote: fn}
	return nil
}

func (r *Registry) mustRegister(name, description string, fn Func) {
	if err := r.Register(name, description, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the vote function registered under name.
func (r *Registry) Lookup(name string) (Func, error) {
	a, ok := r.algorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return a.Vote, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Algorithms returns every registered algorithm sorted by name.
func (r *Registry) Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(r.algorithms))
	for _, name := range r.Names() {
		out = append(out, r.algorithms[name])
	}
	return out
}
