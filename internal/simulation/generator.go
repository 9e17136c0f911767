package simulation

import (
	"fmt"
	"log/slog"

	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/logging"
	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/similarity"
)

// Generator produces synthetic iteration results for a module.
// It is not safe for concurrent use; callers serialize Generate calls.
type Generator struct {
	src       models.RandomSource
	logger    *slog.Logger
	decisions *logging.TraceLogger
}

// NewGenerator creates a generator drawing every random number from src.
func NewGenerator(src models.RandomSource) *Generator {
	return &Generator{src: src}
}

// SetLogger sets the structured logger and trace logger for observability.
func (g *Generator) SetLogger(logger *slog.Logger, decisions *logging.TraceLogger) {
	g.logger = logger
	g.decisions = decisions
}

// run carries the per-call state shared by the band policies.
type run struct {
	src        models.RandomSource
	module     *models.Module
	matrix     *similarity.Matrix
	rows       [][]float64
	coords     [][]float64
	experiment string
}

// Generate returns iterations fresh iterations for m. The module is not
// modified; callers decide whether to replace or merge earlier results.
//
// A module without versions still yields one iteration per index with a drawn
// reference value and no results. So does a module with a single version,
// since band membership needs a pair.
func (g *Generator) Generate(m *models.Module, iterations int, experiment string) ([]models.Iteration, error) {
	if m == nil {
		return nil, fmt.Errorf("generate: %w: nil module", models.ErrInvalidInput)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("generate %s: %w", m.Name, err)
	}
	if iterations < 0 {
		return nil, fmt.Errorf("generate %s: %w: negative iteration count %d", m.Name, models.ErrInvalidInput, iterations)
	}
	if iterations > constants.MaxIterations {
		return nil, fmt.Errorf("generate %s: %w: iteration count %d exceeds %d",
			m.Name, models.ErrInvalidInput, iterations, constants.MaxIterations)
	}

	r := &run{src: g.src, module: m, experiment: experiment}
	var classes similarity.Classification
	if len(m.Versions) > 0 {
		matrix, err := similarity.NewMatrix(m.Versions)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", m.Name, err)
		}
		if !matrix.Normalized && matrix.Len() > 1 && g.logger != nil {
			g.logger.Warn("all versions share the same coordinates, distance matrix left un-normalized",
				"module", m.Name, "versions", matrix.Len())
		}
		r.matrix = matrix
		r.rows = matrix.Rows()
		r.coords = make([][]float64, len(m.Versions))
		for i, v := range m.Versions {
			r.coords[i] = v.Coordinates()
		}
		classes = similarity.Classify(matrix)
	}

	if g.logger != nil {
		g.logger.Debug("generating experiment data",
			"module", m.Name, "experiment", experiment, "iterations", iterations,
			"clone", len(classes.Group(similarity.BandClone)),
			"similar", len(classes.Group(similarity.BandSimilar)),
			"partly_similar", len(classes.Group(similarity.BandPartlySimilar)),
			"different", len(classes.Group(similarity.BandDifferent)))
	}

	out := make([]models.Iteration, 0, iterations)
	for i := 0; i < iterations; i++ {
		ref := r.drawOutput()
		it := models.Iteration{Index: i, ReferenceValue: ref}

		for _, b := range similarity.Bands {
			group := classes.Group(b)
			if len(group) == 0 {
				continue
			}
			it.Results = append(it.Results, r.apply(b, group, ref, i)...)
		}

		if g.decisions != nil {
			g.decisions.Log(map[string]any{
				"event":      "iteration_generated",
				"module":     m.Name,
				"experiment": experiment,
				"iteration":  i,
				"reference":  ref,
				"results":    len(it.Results),
			})
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *run) apply(b similarity.Band, group []int, ref float64, iteration int) []models.IterationResult {
	switch b {
	case similarity.BandClone:
		return r.clone(group, ref, iteration)
	case similarity.BandSimilar:
		return r.similar(group, ref, iteration)
	case similarity.BandPartlySimilar:
		return r.partlySimilar(group, ref, iteration)
	default:
		return r.different(group, ref, iteration)
	}
}

// drawOutput draws a rounded value uniformly from the module's output range.
func (r *run) drawOutput() float64 {
	return models.Round(models.Uniform(r.src, r.module.MinOutVal, r.module.MaxOutVal), r.module.RoundTo)
}

// drawError draws a rounded value around base with the given relative spread.
func (r *run) drawError(base, coefficient float64) float64 {
	return models.Round(models.Normal(r.src, base, coefficient*base), r.module.RoundTo)
}

// result builds one result. Coordinates and matrix rows are shared across the
// run, not copied; the store relies on that to encode the matrix once.
func (r *run) result(idx int, answer, ref float64, iteration int) models.IterationResult {
	v := r.module.Versions[idx]
	return models.IterationResult{
		VersionID:          v.ID,
		VersionName:        v.Name,
		VersionReliability: v.Reliability,
		VersionCoordinates: r.coords[idx],
		Answer:             answer,
		CorrectAnswer:      ref,
		ModuleID:           r.module.ID,
		ModuleName:         r.module.Name,
		ConnectivityMatrix: r.rows,
		Iteration:          iteration,
		ExperimentName:     r.experiment,
	}
}
