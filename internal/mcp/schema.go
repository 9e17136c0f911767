package mcp

import (
	"github.com/nvandessel/voteanalysis/internal/leaderboard"
	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/simulation"
	"github.com/nvandessel/voteanalysis/internal/store"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

// AlgorithmsInput defines the input for nvote_algorithms tool.
type AlgorithmsInput struct{}

// AlgorithmsOutput defines the output for nvote_algorithms tool.
type AlgorithmsOutput struct {
	Algorithms []AlgorithmSummary `json:"algorithms" jsonschema:"Registered vote algorithms sorted by name"`
	Count      int                `json:"count" jsonschema:"Number of algorithms"`
}

// AlgorithmSummary describes one registered vote algorithm.
type AlgorithmSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ModulesInput defines the input for nvote_modules tool.
type ModulesInput struct{}

// ModulesOutput defines the output for nvote_modules tool.
type ModulesOutput struct {
	Modules []ModuleSummary `json:"modules" jsonschema:"Stored modules"`
	Count   int             `json:"count" jsonschema:"Number of modules"`
}

// ModuleSummary is a module without its versions.
type ModuleSummary struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	RoundTo      int     `json:"round_to"`
	MinOutVal    float64 `json:"min_out_val"`
	MaxOutVal    float64 `json:"max_out_val"`
	ConstCount   int     `json:"const_count"`
	DynamicCount int     `json:"dynamic_count"`
}

// ModuleInput defines the input for nvote_module tool.
type ModuleInput struct {
	Module string `json:"module" jsonschema:"Module name"`
}

// ModuleOutput defines the output for nvote_module and nvote_import tools.
type ModuleOutput struct {
	Module   ModuleSummary     `json:"module" jsonschema:"Module settings"`
	Versions []*models.Version `json:"versions" jsonschema:"Versions in insertion order"`
}

// ImportInput defines the input for nvote_import tool.
type ImportInput struct {
	Scenario simulation.Scenario `json:"scenario" jsonschema:"Module with its versions; each version needs reliability or reliability_interval"`
	Seed     uint64              `json:"seed,omitempty" jsonschema:"Seed for dynamic coordinates and interval reliabilities (0 uses the clock)"`
}

// GenerateInput defines the input for nvote_generate tool.
type GenerateInput struct {
	Module     string `json:"module" jsonschema:"Module name"`
	Iterations int    `json:"iterations" jsonschema:"Number of iterations to generate"`
	Experiment string `json:"experiment,omitempty" jsonschema:"Experiment label (default: random UUID)"`
	Seed       uint64 `json:"seed,omitempty" jsonschema:"Seed for a reproducible run (0 uses the clock)"`
}

// GenerateOutput defines the output for nvote_generate tool.
type GenerateOutput struct {
	Module     string `json:"module"`
	Experiment string `json:"experiment" jsonschema:"Label the experiment was stored under"`
	Iterations int    `json:"iterations" jsonschema:"Number of iterations generated"`
	Results    int    `json:"results" jsonschema:"Number of version answers generated"`
	Persisted  bool   `json:"persisted" jsonschema:"Whether the run was stored; runs without results are not"`
}

// ExperimentsInput defines the input for nvote_experiments tool.
type ExperimentsInput struct {
	Module string `json:"module,omitempty" jsonschema:"Module name (default: all modules)"`
}

// ExperimentsOutput defines the output for nvote_experiments tool.
type ExperimentsOutput struct {
	Experiments []store.ExperimentSummary `json:"experiments" jsonschema:"Stored experiments"`
	Count       int                       `json:"count" jsonschema:"Number of experiments"`
}

// VoteInput defines the input for nvote_vote tool.
type VoteInput struct {
	Module     string `json:"module" jsonschema:"Module name"`
	Experiment string `json:"experiment" jsonschema:"Experiment label"`
	Algorithm  string `json:"algorithm" jsonschema:"Vote algorithm name, see nvote_algorithms"`
	Save       bool   `json:"save,omitempty" jsonschema:"Store one vote answer per experiment row (default: false)"`
}

// VoteOutput defines the output for nvote_vote tool.
type VoteOutput struct {
	Report   vote.Report      `json:"report" jsonschema:"Accuracy summary"`
	Outcomes []OutcomeSummary `json:"outcomes" jsonschema:"Consensus per iteration"`
	Saved    int              `json:"saved" jsonschema:"Number of vote answers stored"`
}

// OutcomeSummary is one algorithm result on one iteration.
type OutcomeSummary struct {
	Iteration     int     `json:"iteration"`
	Consensus     float64 `json:"consensus"`
	CorrectAnswer float64 `json:"correct_answer"`
	Error         string  `json:"error,omitempty"`
}

// AnalyzeInput defines the input for nvote_analyze tool.
type AnalyzeInput struct {
	Module     string   `json:"module" jsonschema:"Module name"`
	Experiment string   `json:"experiment" jsonschema:"Experiment label"`
	Algorithms []string `json:"algorithms,omitempty" jsonschema:"Algorithms to compare (default: all)"`
}

// AnalyzeOutput defines the output for nvote_analyze tool.
type AnalyzeOutput struct {
	Reports []vote.Report `json:"reports" jsonschema:"Reports ordered best first"`
	Best    string        `json:"best,omitempty" jsonschema:"Most accurate algorithm"`
}

// LeaderboardInput defines the input for nvote_leaderboard tool.
type LeaderboardInput struct {
	Module     string `json:"module" jsonschema:"Module name"`
	Experiment string `json:"experiment" jsonschema:"Experiment label"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum entries (default: 10)"`
}

// LeaderboardOutput defines the output for nvote_leaderboard tool.
type LeaderboardOutput struct {
	Entries []leaderboard.Entry `json:"entries" jsonschema:"Algorithms by recorded accuracy, best first"`
}
