package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/ratelimit"
	"github.com/nvandessel/voteanalysis/internal/service"
	"github.com/nvandessel/voteanalysis/internal/simulation"
	"github.com/nvandessel/voteanalysis/internal/store"
)

const scenarioDoc = `
name: sorting
round_to: 1
versions:
  - name: quick
    const_coordinates: [1, 0]
    reliability: 0.9
  - name: merge
    const_coordinates: [1, 0.01]
    reliability: 0.8
  - name: heap
    const_coordinates: [9, 9]
    reliability: 0.7
`

func importTestScenario(t *testing.T, server *Server) ModuleOutput {
	t.Helper()
	sc, err := simulation.ParseScenario([]byte(scenarioDoc))
	if err != nil {
		t.Fatal(err)
	}
	_, out, err := server.handleImport(context.Background(), nil, ImportInput{Scenario: *sc, Seed: 1})
	if err != nil {
		t.Fatalf("handleImport failed: %v", err)
	}
	return out
}

func TestHandleAlgorithms(t *testing.T) {
	server, _ := setupTestServer(t)

	_, out, err := server.handleAlgorithms(context.Background(), nil, AlgorithmsInput{})
	if err != nil {
		t.Fatalf("handleAlgorithms failed: %v", err)
	}
	if out.Count != 4 || len(out.Algorithms) != 4 {
		t.Fatalf("got %d algorithms, want 4", out.Count)
	}
	names := make(map[string]bool)
	for _, a := range out.Algorithms {
		names[a.Name] = true
		if a.Description == "" {
			t.Errorf("algorithm %s has no description", a.Name)
		}
	}
	for _, want := range []string{constants.AlgorithmAverage, constants.AlgorithmMedian, constants.AlgorithmClassic, constants.AlgorithmModified} {
		if !names[want] {
			t.Errorf("algorithm %s missing", want)
		}
	}
}

func TestHandleModules_Empty(t *testing.T) {
	server, _ := setupTestServer(t)

	_, out, err := server.handleModules(context.Background(), nil, ModulesInput{})
	if err != nil {
		t.Fatalf("handleModules failed: %v", err)
	}
	if out.Count != 0 || out.Modules == nil {
		t.Errorf("got %+v, want an empty non-nil list", out)
	}
}

func TestHandleImportAndModule(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	imported := importTestScenario(t, server)
	if imported.Module.ID == 0 || imported.Module.ConstCount != 2 || len(imported.Versions) != 3 {
		t.Fatalf("imported = %+v", imported)
	}

	_, out, err := server.handleModule(ctx, nil, ModuleInput{Module: "sorting"})
	if err != nil {
		t.Fatalf("handleModule failed: %v", err)
	}
	if out.Module != imported.Module {
		t.Errorf("module = %+v, want %+v", out.Module, imported.Module)
	}
	if len(out.Versions) != 3 || out.Versions[0].Name != "quick" {
		t.Errorf("versions = %+v", out.Versions)
	}

	_, list, err := server.handleModules(ctx, nil, ModulesInput{})
	if err != nil {
		t.Fatalf("handleModules failed: %v", err)
	}
	if list.Count != 1 || list.Modules[0].Name != "sorting" {
		t.Errorf("modules = %+v", list.Modules)
	}

	if _, _, err := server.handleImport(ctx, nil, ImportInput{Scenario: simulation.Scenario{Name: "sorting"}}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate import error = %v, want ErrDuplicate", err)
	}
}

func TestHandleModule_Errors(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	if _, _, err := server.handleModule(ctx, nil, ModuleInput{}); err == nil {
		t.Error("expected error for missing module name")
	}
	if _, _, err := server.handleModule(ctx, nil, ModuleInput{Module: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestHandleGenerateVoteAnalyze(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()
	importTestScenario(t, server)

	_, gen, err := server.handleGenerate(ctx, nil, GenerateInput{Module: "sorting", Iterations: 10, Experiment: "exp", Seed: 3})
	if err != nil {
		t.Fatalf("handleGenerate failed: %v", err)
	}
	if !gen.Persisted || gen.Iterations != 10 || gen.Results == 0 || gen.Experiment != "exp" {
		t.Fatalf("generate = %+v", gen)
	}

	_, exps, err := server.handleExperiments(ctx, nil, ExperimentsInput{Module: "sorting"})
	if err != nil {
		t.Fatalf("handleExperiments failed: %v", err)
	}
	if exps.Count != 1 || exps.Experiments[0].Name != "exp" || exps.Experiments[0].Iterations != 10 {
		t.Errorf("experiments = %+v", exps.Experiments)
	}

	_, voted, err := server.handleVote(ctx, nil, VoteInput{Module: "sorting", Experiment: "exp", Algorithm: constants.AlgorithmMedian, Save: true})
	if err != nil {
		t.Fatalf("handleVote failed: %v", err)
	}
	if len(voted.Outcomes) != 10 || voted.Report.Iterations != 10 {
		t.Errorf("vote = %+v", voted.Report)
	}
	if voted.Saved != gen.Results {
		t.Errorf("saved = %d, want %d", voted.Saved, gen.Results)
	}

	_, analysis, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Module: "sorting", Experiment: "exp"})
	if err != nil {
		t.Fatalf("handleAnalyze failed: %v", err)
	}
	if len(analysis.Reports) != 4 {
		t.Fatalf("got %d reports, want 4", len(analysis.Reports))
	}
	if analysis.Best != analysis.Reports[0].Algorithm {
		t.Errorf("best = %q, want %q", analysis.Best, analysis.Reports[0].Algorithm)
	}
	for i := 1; i < len(analysis.Reports); i++ {
		if analysis.Reports[i].Accuracy > analysis.Reports[i-1].Accuracy {
			t.Errorf("reports not ordered by accuracy: %+v", analysis.Reports)
		}
	}
}

func TestHandleGenerate_Validation(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args GenerateInput
	}{
		{"missing module", GenerateInput{Iterations: 1}},
		{"zero iterations", GenerateInput{Module: "sorting"}},
		{"too many iterations", GenerateInput{Module: "sorting", Iterations: constants.MaxIterations + 1}},
		{"unknown module", GenerateInput{Module: "missing", Iterations: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server.limiters = ratelimit.DefaultLimiters()
			if _, _, err := server.handleGenerate(ctx, nil, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHandleVote_UnknownAlgorithm(t *testing.T) {
	server, _ := setupTestServer(t)
	importTestScenario(t, server)

	_, _, err := server.handleVote(context.Background(), nil, VoteInput{Module: "sorting", Experiment: "exp", Algorithm: "plurality"})
	if err == nil || !strings.Contains(err.Error(), "plurality") {
		t.Errorf("error = %v, want unknown algorithm", err)
	}
}

func TestHandleGenerate_RateLimited(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()
	importTestScenario(t, server)

	// generate has burst=3
	args := GenerateInput{Module: "sorting", Iterations: 1}
	for i := 0; i < 3; i++ {
		if _, _, err := server.handleGenerate(ctx, nil, args); err != nil {
			t.Fatalf("call %d should succeed: %v", i+1, err)
		}
	}
	_, _, err := server.handleGenerate(ctx, nil, args)
	if !errors.Is(err, ratelimit.ErrLimited) {
		t.Errorf("fourth call error = %v, want ErrLimited", err)
	}
}

func TestHandleLeaderboard_Disabled(t *testing.T) {
	server, _ := setupTestServer(t)

	_, _, err := server.handleLeaderboard(context.Background(), nil, LeaderboardInput{Module: "sorting", Experiment: "exp"})
	if !errors.Is(err, service.ErrLeaderboardDisabled) {
		t.Errorf("error = %v, want ErrLeaderboardDisabled", err)
	}
}

func TestHandleModulesResource(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()
	importTestScenario(t, server)
	_, gen, err := server.handleGenerate(ctx, nil, GenerateInput{Module: "sorting", Iterations: 2, Experiment: "exp"})
	if err != nil {
		t.Fatalf("handleGenerate failed: %v", err)
	}

	res, err := server.handleModulesResource(ctx, &sdk.ReadResourceRequest{
		Params: &sdk.ReadResourceParams{URI: "nvote://modules"},
	})
	if err != nil {
		t.Fatalf("handleModulesResource failed: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(res.Contents))
	}
	text := res.Contents[0].Text
	for _, want := range []string{"## sorting", "2 constant, 0 dynamic", fmt.Sprintf("experiment `exp`: 2 iterations, %d results", gen.Results)} {
		if !strings.Contains(text, want) {
			t.Errorf("resource text missing %q:\n%s", want, text)
		}
	}
}

func TestHandlersWriteAudit(t *testing.T) {
	server, dir := setupTestServer(t)
	ctx := context.Background()

	server.handleAlgorithms(ctx, nil, AlgorithmsInput{})
	server.handleModule(ctx, nil, ModuleInput{Module: "missing"})

	entries := readAuditEntries(t, filepath.Join(dir, AuditFileName))
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Tool != "nvote_algorithms" || entries[0].Status != "success" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Tool != "nvote_module" || entries[1].Status != "error" || entries[1].Params["module"] != "missing" {
		t.Errorf("second entry = %+v", entries[1])
	}
}
