package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/leaderboard"
	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/ratelimit"
	"github.com/nvandessel/voteanalysis/internal/service"
	"github.com/nvandessel/voteanalysis/internal/store"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

// registerTools registers all MCP tools.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_algorithms",
		Description: "List the registered vote algorithms",
	}, s.handleAlgorithms)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_modules",
		Description: "List stored modules without their versions",
	}, s.handleModules)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_module",
		Description: "Show one module with its versions and coordinates",
	}, s.handleModule)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_import",
		Description: "Create a module and its versions from a scenario",
	}, s.handleImport)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_generate",
		Description: "Generate and store synthetic version answers for a module",
	}, s.handleGenerate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_experiments",
		Description: "List stored experiments",
	}, s.handleExperiments)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_vote",
		Description: "Run one vote algorithm over every iteration of an experiment",
	}, s.handleVote)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_analyze",
		Description: "Compare vote algorithms on an experiment, most accurate first",
	}, s.handleAnalyze)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "nvote_leaderboard",
		Description: "Show the recorded algorithm ranking for an experiment",
	}, s.handleLeaderboard)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         "nvote://modules",
		Name:        "nvote-modules",
		Description: "Stored modules and their experiments.",
		MIMEType:    "text/markdown",
	}, s.handleModulesResource)
}

func (s *Server) handleModulesResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	modules, err := s.svc.Modules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	experiments, err := s.svc.Experiments(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Modules\n\n")
	if len(modules) == 0 {
		sb.WriteString("No modules stored yet.\n")
	}
	for _, m := range modules {
		fmt.Fprintf(&sb, "## %s\n\n", m.Name)
		fmt.Fprintf(&sb, "- output range: [%g, %g], rounded to %d digits\n", m.MinOutVal, m.MaxOutVal, m.RoundTo)
		fmt.Fprintf(&sb, "- coordinates: %d constant, %d dynamic\n", m.ConstCount, m.DynamicCount)
		for _, e := range experiments {
			if e.ModuleID == m.ID {
				fmt.Fprintf(&sb, "- experiment `%s`: %d iterations, %d results\n", e.Name, e.Iterations, e.Results)
			}
		}
		sb.WriteString("\n")
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     sb.String(),
		}},
	}, nil
}

func (s *Server) handleAlgorithms(ctx context.Context, req *sdk.CallToolRequest, args AlgorithmsInput) (_ *sdk.CallToolResult, _ AlgorithmsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_algorithms", start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	algorithms := s.svc.Algorithms()
	out := AlgorithmsOutput{Algorithms: make([]AlgorithmSummary, 0, len(algorithms))}
	for _, a := range algorithms {
		out.Algorithms = append(out.Algorithms, AlgorithmSummary{Name: a.Name, Description: a.Description})
	}
	out.Count = len(out.Algorithms)
	return nil, out, nil
}

func (s *Server) handleModules(ctx context.Context, req *sdk.CallToolRequest, args ModulesInput) (_ *sdk.CallToolResult, _ ModulesOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_modules", start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	modules, err := s.svc.Modules(ctx)
	if err != nil {
		return nil, ModulesOutput{}, fmt.Errorf("failed to list modules: %w", err)
	}
	out := ModulesOutput{Modules: make([]ModuleSummary, 0, len(modules))}
	for _, m := range modules {
		out.Modules = append(out.Modules, summarizeModule(m))
	}
	out.Count = len(out.Modules)
	return nil, out, nil
}

func (s *Server) handleModule(ctx context.Context, req *sdk.CallToolRequest, args ModuleInput) (_ *sdk.CallToolResult, _ ModuleOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_module", start, retErr, sanitizeToolParams(map[string]any{"module": args.Module}))
	}()

	if args.Module == "" {
		return nil, ModuleOutput{}, fmt.Errorf("'module' parameter is required")
	}
	m, err := s.svc.Module(ctx, args.Module)
	if err != nil {
		return nil, ModuleOutput{}, fmt.Errorf("failed to load module %q: %w", args.Module, err)
	}
	return nil, moduleOutput(m), nil
}

func (s *Server) handleImport(ctx context.Context, req *sdk.CallToolRequest, args ImportInput) (_ *sdk.CallToolResult, _ ModuleOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_import", start, retErr, sanitizeToolParams(map[string]any{
			"module": args.Scenario.Name, "scenario": true, "seed": args.Seed,
		}))
	}()

	if err := s.limiters.Check(ratelimit.OpImport, caller); err != nil {
		return nil, ModuleOutput{}, err
	}
	if args.Scenario.Name == "" {
		return nil, ModuleOutput{}, fmt.Errorf("'scenario.name' parameter is required")
	}
	m, err := s.svc.ImportScenario(ctx, &args.Scenario, args.Seed)
	if err != nil {
		return nil, ModuleOutput{}, fmt.Errorf("failed to import module %q: %w", args.Scenario.Name, err)
	}
	return nil, moduleOutput(m), nil
}

func (s *Server) handleGenerate(ctx context.Context, req *sdk.CallToolRequest, args GenerateInput) (_ *sdk.CallToolResult, _ GenerateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_generate", start, retErr, sanitizeToolParams(map[string]any{
			"module": args.Module, "experiment": args.Experiment, "iterations": args.Iterations, "seed": args.Seed,
		}))
	}()

	if err := s.limiters.Check(ratelimit.OpGenerate, caller); err != nil {
		return nil, GenerateOutput{}, err
	}
	if args.Module == "" {
		return nil, GenerateOutput{}, fmt.Errorf("'module' parameter is required")
	}
	if args.Iterations <= 0 || args.Iterations > constants.MaxIterations {
		return nil, GenerateOutput{}, fmt.Errorf("'iterations' must be between 1 and %d", constants.MaxIterations)
	}

	res, err := s.svc.Generate(ctx, service.GenerateRequest{
		Module:     args.Module,
		Iterations: args.Iterations,
		Experiment: args.Experiment,
		Seed:       args.Seed,
	})
	if err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("failed to generate experiment: %w", err)
	}
	return nil, GenerateOutput{
		Module:     res.Module,
		Experiment: res.Experiment,
		Iterations: res.Count,
		Results:    res.Results,
		Persisted:  res.Persisted,
	}, nil
}

func (s *Server) handleExperiments(ctx context.Context, req *sdk.CallToolRequest, args ExperimentsInput) (_ *sdk.CallToolResult, _ ExperimentsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_experiments", start, retErr, sanitizeToolParams(map[string]any{"module": args.Module}))
	}()

	experiments, err := s.svc.Experiments(ctx, args.Module)
	if err != nil {
		return nil, ExperimentsOutput{}, fmt.Errorf("failed to list experiments: %w", err)
	}
	if experiments == nil {
		experiments = []store.ExperimentSummary{}
	}
	return nil, ExperimentsOutput{Experiments: experiments, Count: len(experiments)}, nil
}

func (s *Server) handleVote(ctx context.Context, req *sdk.CallToolRequest, args VoteInput) (_ *sdk.CallToolResult, _ VoteOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_vote", start, retErr, sanitizeToolParams(map[string]any{
			"module": args.Module, "experiment": args.Experiment, "algorithm": args.Algorithm, "save": args.Save,
		}))
	}()

	if err := s.limiters.Check(ratelimit.OpVote, caller); err != nil {
		return nil, VoteOutput{}, err
	}
	if args.Module == "" || args.Experiment == "" || args.Algorithm == "" {
		return nil, VoteOutput{}, fmt.Errorf("'module', 'experiment' and 'algorithm' parameters are required")
	}

	res, err := s.svc.Vote(ctx, service.VoteRequest{
		Module:     args.Module,
		Experiment: args.Experiment,
		Algorithm:  args.Algorithm,
		Save:       args.Save,
	})
	if err != nil {
		return nil, VoteOutput{}, fmt.Errorf("failed to vote: %w", err)
	}
	return nil, VoteOutput{Report: res.Report, Outcomes: summarizeOutcomes(res.Outcomes), Saved: res.Saved}, nil
}

func (s *Server) handleAnalyze(ctx context.Context, req *sdk.CallToolRequest, args AnalyzeInput) (_ *sdk.CallToolResult, _ AnalyzeOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_analyze", start, retErr, sanitizeToolParams(map[string]any{
			"module": args.Module, "experiment": args.Experiment, "algorithms": args.Algorithms,
		}))
	}()

	if err := s.limiters.Check(ratelimit.OpAnalyze, caller); err != nil {
		return nil, AnalyzeOutput{}, err
	}
	if args.Module == "" || args.Experiment == "" {
		return nil, AnalyzeOutput{}, fmt.Errorf("'module' and 'experiment' parameters are required")
	}

	reports, err := s.svc.Analyze(ctx, args.Module, args.Experiment, args.Algorithms)
	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("failed to analyze experiment: %w", err)
	}
	out := AnalyzeOutput{Reports: reports}
	if len(reports) > 0 {
		out.Best = reports[0].Algorithm
	}
	return nil, out, nil
}

func (s *Server) handleLeaderboard(ctx context.Context, req *sdk.CallToolRequest, args LeaderboardInput) (_ *sdk.CallToolResult, _ LeaderboardOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("nvote_leaderboard", start, retErr, sanitizeToolParams(map[string]any{
			"module": args.Module, "experiment": args.Experiment, "limit": args.Limit,
		}))
	}()

	if args.Module == "" || args.Experiment == "" {
		return nil, LeaderboardOutput{}, fmt.Errorf("'module' and 'experiment' parameters are required")
	}
	entries, err := s.svc.Leaderboard(ctx, args.Module, args.Experiment, args.Limit)
	if err != nil {
		return nil, LeaderboardOutput{}, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	return nil, LeaderboardOutput{Entries: entries}, nil
}

func summarizeModule(m *models.Module) ModuleSummary {
	return ModuleSummary{
		ID:           m.ID,
		Name:         m.Name,
		RoundTo:      m.RoundTo,
		MinOutVal:    m.MinOutVal,
		MaxOutVal:    m.MaxOutVal,
		ConstCount:   m.ConstCount,
		DynamicCount: m.DynamicCount,
	}
}

func moduleOutput(m *models.Module) ModuleOutput {
	versions := m.Versions
	if versions == nil {
		versions = []*models.Version{}
	}
	return ModuleOutput{Module: summarizeModule(m), Versions: versions}
}

func summarizeOutcomes(outcomes []vote.Outcome) []OutcomeSummary {
	out := make([]OutcomeSummary, 0, len(outcomes))
	for _, o := range outcomes {
		sum := OutcomeSummary{Iteration: o.Iteration, Consensus: o.Consensus, CorrectAnswer: o.CorrectAnswer}
		if o.Failed() {
			sum.Error = o.Err.Error()
		}
		out = append(out, sum)
	}
	return out
}
