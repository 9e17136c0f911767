// Package service wires the store, the generator and the vote runner into the
// operations shared by the CLI, the HTTP API and the MCP server.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nvandessel/voteanalysis/internal/leaderboard"
	"github.com/nvandessel/voteanalysis/internal/logging"
	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/sanitize"
	"github.com/nvandessel/voteanalysis/internal/simulation"
	"github.com/nvandessel/voteanalysis/internal/store"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

// Service runs experiments against a store. Generation and voting are
// serialized; the store handles its own locking.
type Service struct {
	mu        sync.Mutex
	store     store.Store
	registry  *vote.Registry
	runner    *vote.Runner
	board     leaderboard.Board
	logger    *slog.Logger
	decisions *logging.TraceLogger
}

// New creates a service over st using the algorithms in reg.
func New(st store.Store, reg *vote.Registry) *Service {
	return &Service{store: st, registry: reg, runner: vote.NewRunner(reg)}
}

// SetLogger sets the structured logger and trace logger for observability.
func (s *Service) SetLogger(logger *slog.Logger, decisions *logging.TraceLogger) {
	s.logger = logger
	s.decisions = decisions
	s.runner.SetLogger(logger, decisions)
}

// SetLeaderboard enables recording analysis results. A nil board disables it.
func (s *Service) SetLeaderboard(b leaderboard.Board) {
	s.board = b
}

// Store returns the underlying store.
func (s *Service) Store() store.Store {
	return s.store
}

// CreateModule stores a new module without versions.
func (s *Service) CreateModule(ctx context.Context, m *models.Module) error {
	name, err := cleanName("module", m.Name)
	if err != nil {
		return err
	}
	m.Name = name
	if err := s.store.SaveModule(ctx, m); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("module created", "module", m.Name, "id", m.ID)
	}
	return nil
}

// ImportScenario builds a module from sc, drawing with seed, and stores it
// with its versions.
func (s *Service) ImportScenario(ctx context.Context, sc *simulation.Scenario, seed uint64) (*models.Module, error) {
	clean := *sc
	name, err := cleanName("module", sc.Name)
	if err != nil {
		return nil, err
	}
	clean.Name = name
	clean.Versions = make([]simulation.VersionSpec, len(sc.Versions))
	for i, spec := range sc.Versions {
		if spec.Name, err = cleanOptionalName("version", spec.Name); err != nil {
			return nil, err
		}
		clean.Versions[i] = spec
	}

	m, err := clean.Build(models.NewRandomSource(seed))
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveModuleWithVersions(ctx, m); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("module imported", "module", m.Name, "id", m.ID, "versions", len(m.Versions))
	}
	return m, nil
}

// Module loads a module and its versions by name.
func (s *Service) Module(ctx context.Context, name string) (*models.Module, error) {
	return s.store.LoadModuleByName(ctx, name)
}

// Modules lists every module without versions.
func (s *Service) Modules(ctx context.Context) ([]*models.Module, error) {
	return s.store.ListModules(ctx)
}

// AddVersion appends the version described by spec to the named module and
// stores the module's updated interval map along with the version.
func (s *Service) AddVersion(ctx context.Context, module string, spec simulation.VersionSpec, seed uint64) (*models.Version, error) {
	m, err := s.store.LoadModuleByName(ctx, module)
	if err != nil {
		return nil, err
	}
	if spec.Name, err = cleanOptionalName("version", spec.Name); err != nil {
		return nil, err
	}
	v, err := spec.AddTo(m, models.NewRandomSource(seed))
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", module, err)
	}
	if err := s.store.AppendVersion(ctx, m); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("version added", "module", module, "version", v.Name, "id", v.ID)
	}
	return v, nil
}

// GenerateRequest describes one generation run.
type GenerateRequest struct {
	Module     string `json:"module"`
	Iterations int    `json:"iterations"`

	// Experiment labels the run. Empty picks a random UUID.
	Experiment string `json:"experiment,omitempty"`

	// Seed makes the run reproducible. Zero seeds from the clock.
	Seed uint64 `json:"seed,omitempty"`
}

// GenerateResult reports a finished generation run.
type GenerateResult struct {
	Module     string             `json:"module"`
	Experiment string             `json:"experiment"`
	Iterations []models.Iteration `json:"-"`
	Count      int                `json:"iterations"`
	Results    int                `json:"results"`
	Persisted  bool               `json:"persisted"`
}

// Generate produces and stores a new experiment for a module. Runs without
// any result are returned but not stored.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	m, err := s.store.LoadModuleByName(ctx, req.Module)
	if err != nil {
		return nil, err
	}
	experiment, err := cleanOptionalName("experiment", req.Experiment)
	if err != nil {
		return nil, err
	}
	if experiment == "" {
		experiment = uuid.NewString()
	}

	s.mu.Lock()
	gen := simulation.NewGenerator(models.NewRandomSource(req.Seed))
	gen.SetLogger(s.logger, s.decisions)
	iterations, err := gen.Generate(m, req.Iterations, experiment)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	res := &GenerateResult{Module: m.Name, Experiment: experiment, Iterations: iterations, Count: len(iterations)}
	for _, it := range iterations {
		res.Results += len(it.Results)
	}
	if res.Results > 0 {
		if err := s.store.SaveExperiment(ctx, iterations); err != nil {
			return nil, err
		}
		res.Persisted = true
	} else if s.logger != nil {
		s.logger.Warn("experiment has no results and was not stored",
			"module", m.Name, "experiment", experiment, "versions", len(m.Versions))
	}

	if s.logger != nil {
		s.logger.Info("experiment generated",
			"module", m.Name, "experiment", experiment, "iterations", res.Count, "results", res.Results)
	}
	return res, nil
}

// Experiments summarizes the stored experiments of a module. An empty name
// lists every module's experiments.
func (s *Service) Experiments(ctx context.Context, module string) ([]store.ExperimentSummary, error) {
	var id int64
	if module != "" {
		m, err := s.store.LoadModuleByName(ctx, module)
		if err != nil {
			return nil, err
		}
		id = m.ID
	}
	return s.store.ListExperiments(ctx, id)
}

// Experiment loads a stored experiment with its module.
func (s *Service) Experiment(ctx context.Context, module, experiment string) (*models.Module, []models.Iteration, error) {
	m, err := s.store.LoadModuleByName(ctx, module)
	if err != nil {
		return nil, nil, err
	}
	iterations, err := s.store.LoadExperiment(ctx, m.ID, experiment)
	if err != nil {
		return nil, nil, err
	}
	return m, iterations, nil
}

// Algorithms returns the registered algorithms sorted by name.
func (s *Service) Algorithms() []vote.Algorithm {
	return s.registry.Algorithms()
}

// SyncAlgorithms records every registered algorithm in the store and returns
// their store IDs by name.
func (s *Service) SyncAlgorithms(ctx context.Context) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, a := range s.registry.Algorithms() {
		rec := &store.AlgorithmRecord{Name: a.Name, Description: a.Description}
		if err := s.store.SaveAlgorithm(ctx, rec); err != nil {
			return nil, err
		}
		ids[a.Name] = rec.ID
	}
	return ids, nil
}

// VoteRequest describes one vote run over a stored experiment.
type VoteRequest struct {
	Module     string `json:"module"`
	Experiment string `json:"experiment"`
	Algorithm  string `json:"algorithm"`

	// Save stores one vote result per experiment data row.
	Save bool `json:"save,omitempty"`
}

// VoteResult reports a finished vote run.
type VoteResult struct {
	Module     string         `json:"module"`
	Experiment string         `json:"experiment"`
	Outcomes   []vote.Outcome `json:"outcomes"`
	Report     vote.Report    `json:"report"`
	Saved      int            `json:"saved"`
}

// Vote applies one algorithm to every iteration of a stored experiment.
func (s *Service) Vote(ctx context.Context, req VoteRequest) (*VoteResult, error) {
	if _, err := s.registry.Lookup(req.Algorithm); err != nil {
		return nil, err
	}
	m, iterations, err := s.Experiment(ctx, req.Module, req.Experiment)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	outcomes, err := s.runner.Run(req.Algorithm, iterations)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	res := &VoteResult{
		Module:     m.Name,
		Experiment: req.Experiment,
		Outcomes:   outcomes,
		Report:     vote.Analyze(req.Algorithm, outcomes, m.RoundTo),
	}
	if req.Save {
		rec := &store.AlgorithmRecord{Name: req.Algorithm}
		for _, a := range s.registry.Algorithms() {
			if a.Name == req.Algorithm {
				rec.Description = a.Description
			}
		}
		if err := s.store.SaveAlgorithm(ctx, rec); err != nil {
			return nil, err
		}
		if res.Saved, err = s.store.SaveVoteResults(ctx, rec.ID, outcomes); err != nil {
			return nil, err
		}
	}
	s.record(ctx, m.Name, req.Experiment, []vote.Report{res.Report})
	return res, nil
}

// Analyze compares algorithms on a stored experiment, best first. No names
// compares every registered algorithm.
func (s *Service) Analyze(ctx context.Context, module, experiment string, algorithms []string) ([]vote.Report, error) {
	if len(algorithms) == 0 {
		algorithms = s.registry.Names()
	}
	for _, name := range algorithms {
		if _, err := s.registry.Lookup(name); err != nil {
			return nil, err
		}
	}
	m, iterations, err := s.Experiment(ctx, module, experiment)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	reports, err := s.runner.Compare(algorithms, iterations, m.RoundTo)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.record(ctx, m.Name, experiment, reports)
	return reports, nil
}

// Leaderboard returns the top algorithms recorded for an experiment.
func (s *Service) Leaderboard(ctx context.Context, module, experiment string, limit int) ([]leaderboard.Entry, error) {
	if s.board == nil {
		return nil, ErrLeaderboardDisabled
	}
	return s.board.Top(ctx, module, experiment, limit)
}

// Rank returns the 1-indexed leaderboard position of algorithm, or -1 when
// nothing was recorded for it.
func (s *Service) Rank(ctx context.Context, module, experiment, algorithm string) (int64, error) {
	if s.board == nil {
		return 0, ErrLeaderboardDisabled
	}
	return s.board.Rank(ctx, module, experiment, algorithm)
}

// ErrLeaderboardDisabled is returned when no leaderboard is configured.
var ErrLeaderboardDisabled = errors.New("leaderboard is not enabled")

// record pushes reports to the leaderboard. Failures are only logged.
func (s *Service) record(ctx context.Context, module, experiment string, reports []vote.Report) {
	if s.board == nil {
		return
	}
	if err := s.board.Record(ctx, module, experiment, reports); err != nil && s.logger != nil {
		s.logger.Warn("failed to update leaderboard", "module", module, "experiment", experiment, "error", err)
	}
}

// cleanName sanitizes a required name.
func cleanName(kind, name string) (string, error) {
	clean := sanitize.Name(name)
	if clean == "" {
		return "", fmt.Errorf("%w: %s name %q has no usable characters", models.ErrInvalidInput, kind, name)
	}
	return clean, nil
}

// cleanOptionalName sanitizes a name that may be left empty for a default.
func cleanOptionalName(kind, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	return cleanName(kind, name)
}
