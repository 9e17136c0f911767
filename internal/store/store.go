// Package store persists modules, versions, generated experiment data,
// algorithms and vote results.
package store

import (
	"context"
	"errors"

	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a module or version name is already taken.
	ErrDuplicate = errors.New("already exists")
)

// AlgorithmRecord is a vote algorithm known to the store.
type AlgorithmRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// VoteResult is one persisted vote answer for one experiment data row.
type VoteResult struct {
	ID               int64   `json:"id,omitempty"`
	AlgorithmID      int64   `json:"algorithm_id"`
	ExperimentDataID int64   `json:"experiment_data_id"`
	Answer           float64 `json:"vote_answer"`
}

// ExperimentSummary describes one stored experiment of a module.
type ExperimentSummary struct {
	ModuleID   int64  `json:"module_id"`
	ModuleName string `json:"module_name"`
	Name       string `json:"experiment_name"`
	Iterations int    `json:"iterations"`
	Results    int    `json:"results"`
}

// Store is the persistence boundary used by the CLI, the HTTP server and the
// MCP server. Identifiers are assigned on save and written back into the
// values passed in.
type Store interface {
	// SaveModule inserts or updates a module row without touching versions.
	SaveModule(ctx context.Context, m *models.Module) error
	// SaveModuleWithVersions saves the module and every version in one transaction.
	SaveModuleWithVersions(ctx context.Context, m *models.Module) error
	// AppendVersion inserts the last version of m and updates m in one transaction.
	AppendVersion(ctx context.Context, m *models.Module) error

	LoadModule(ctx context.Context, id int64) (*models.Module, error)
	LoadModuleByName(ctx context.Context, name string) (*models.Module, error)
	ListModules(ctx context.Context) ([]*models.Module, error)

	// SaveExperiment replaces any stored data for the same module and
	// experiment name with iterations, assigning result IDs in place.
	SaveExperiment(ctx context.Context, iterations []models.Iteration) error
	LoadExperiment(ctx context.Context, moduleID int64, experiment string) ([]models.Iteration, error)
	ListExperiments(ctx context.Context, moduleID int64) ([]ExperimentSummary, error)

	SaveAlgorithm(ctx context.Context, a *AlgorithmRecord) error
	ListAlgorithms(ctx context.Context) ([]AlgorithmRecord, error)

	SaveVoteResults(ctx context.Context, algorithmID int64, outcomes []vote.Outcome) (int, error)
	ListVoteResults(ctx context.Context, algorithmID int64) ([]VoteResult, error)

	Close() error
}
