package vote

import (
	"context"
	"log/slog"

	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/logging"
	"github.com/nvandessel/voteanalysis/internal/models"
)

// Outcome is the result of one algorithm on one iteration.
type Outcome struct {
	Iteration     int     `json:"iteration"`
	Consensus     float64 `json:"consensus"`
	CorrectAnswer float64 `json:"correct_answer"`

	// ResultIDs are the store identifiers of the results voted on, in result
	// order. Unpersisted results contribute nothing.
	ResultIDs []int64 `json:"result_ids,omitempty"`

	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the algorithm returned an error for this iteration.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Runner applies registered algorithms to generated iterations.
type Runner struct {
	registry  *Registry
	logger    *slog.Logger
	decisions *logging.TraceLogger
}

// NewRunner creates a runner resolving algorithms through reg.
func NewRunner(reg *Registry) *Runner {
	return &Runner{registry: reg}
}

// SetLogger sets the structured logger and trace logger for observability.
func (r *Runner) SetLogger(logger *slog.Logger, decisions *logging.TraceLogger) {
	r.logger = logger
	r.decisions = decisions
}

// Run votes with the named algorithm on every iteration. An iteration whose
// vote fails records the error in its Outcome and the run continues. Only an
// unknown algorithm name fails the whole run.
func (r *Runner) Run(name string, iterations []models.Iteration) ([]Outcome, error) {
	fn, err := r.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(iterations))
	for _, it := range iterations {
		o := Outcome{Iteration: it.Index, CorrectAnswer: it.ReferenceValue}
		for _, res := range it.Results {
			if res.ID != 0 {
				o.ResultIDs = append(o.ResultIDs, res.ID)
			}
		}

		o.Consensus, o.Err = fn(it.Results)
		if o.Err != nil {
			o.Consensus = 0
			o.Error = o.Err.Error()
			if r.logger != nil {
				r.logger.Debug("vote failed", "algorithm", name, "iteration", it.Index, "error", o.Err)
			}
		} else if r.logger != nil {
			r.logger.Log(context.Background(), logging.LevelTrace, "vote decided",
				"algorithm", name, "iteration", it.Index, "consensus", o.Consensus, "correct", it.ReferenceValue)
		}
		r.trace(name, it, o)
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (r *Runner) trace(name string, it models.Iteration, o Outcome) {
	if r.decisions == nil {
		return
	}
	answers := it.Answers()
	if len(answers) > constants.MaxTraceAnswers {
		answers = answers[:constants.MaxTraceAnswers]
	}
	event := map[string]any{
		"event":     "vote",
		"algorithm": name,
		"iteration": it.Index,
		"correct":   it.ReferenceValue,
		"answers":   answers,
		"consensus": o.Consensus,
	}
	if o.Err != nil {
		event["error"] = o.Error
	}
	r.decisions.Log(event)
}
