package vote

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/nvandessel/voteanalysis/internal/logging"
	"github.com/nvandessel/voteanalysis/internal/models"
)

func iteration(index int, ref float64, answers ...float64) models.Iteration {
	rs := results(answers...)
	for i := range rs {
		rs[i].ID = int64(index*10 + i + 1)
		rs[i].CorrectAnswer = ref
		rs[i].Iteration = index
	}
	return models.Iteration{Index: index, ReferenceValue: ref, Results: rs}
}

func TestRunnerRun(t *testing.T) {
	its := []models.Iteration{
		iteration(0, 500, 500, 500, 120),
		{Index: 1, ReferenceValue: 300},
		iteration(2, 700, 100, 200, 300),
	}
	r := NewRunner(NewRegistry(&fixedPicker{}))

	outcomes, err := r.Run("median", its)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}

	if o := outcomes[0]; o.Consensus != 500 || o.CorrectAnswer != 500 || o.Failed() {
		t.Errorf("outcome 0 = %+v", o)
	}
	if got := outcomes[0].ResultIDs; len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("outcome 0 ResultIDs = %v, want [1 2 3]", got)
	}
	if o := outcomes[1]; !o.Failed() || !errors.Is(o.Err, models.ErrEmptyInput) || o.Error == "" {
		t.Errorf("outcome 1 should record the empty input error, got %+v", o)
	}
	if o := outcomes[2]; o.Consensus != 200 || o.Iteration != 2 {
		t.Errorf("outcome 2 = %+v", o)
	}
}

func TestRunnerUnknownAlgorithm(t *testing.T) {
	r := NewRunner(NewRegistry(nil))
	if _, err := r.Run("nope", nil); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("Run() error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestRunnerTrace(t *testing.T) {
	dir := t.TempDir()
	trace := logging.NewTraceLogger(dir, "debug")
	defer trace.Close()

	r := NewRunner(NewRegistry(nil))
	r.SetLogger(nil, trace)
	if _, err := r.Run("average", []models.Iteration{iteration(0, 10, 10, 20), {Index: 1}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(trace.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d trace lines, want 2", len(lines))
	}
	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if first["algorithm"] != "average" || first["consensus"] != 15.0 {
		t.Errorf("first trace = %v", first)
	}
	if _, ok := second["error"]; !ok {
		t.Errorf("second trace should carry the error: %v", second)
	}
}

func TestAnalyze(t *testing.T) {
	outcomes := []Outcome{
		{Consensus: 500, CorrectAnswer: 500},
		{Consensus: 500.004, CorrectAnswer: 500},
		{Consensus: 510, CorrectAnswer: 500},
		{Err: models.ErrEmptyInput},
	}
	rep := Analyze("classic", outcomes, 2)

	if rep.Iterations != 4 || rep.Correct != 2 || rep.Failed != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", rep.Accuracy)
	}
	wantMAE := (0 + 0.004 + 10) / 3
	if math.Abs(rep.MeanAbsError-wantMAE) > 1e-9 {
		t.Errorf("MeanAbsError = %v, want %v", rep.MeanAbsError, wantMAE)
	}

	empty := Analyze("classic", nil, 2)
	if empty.Accuracy != 0 || empty.MeanAbsError != 0 {
		t.Errorf("empty report = %+v", empty)
	}
}

func TestTolerance(t *testing.T) {
	tests := []struct {
		roundTo int
		want    float64
	}{
		{0, 0.5},
		{1, 0.05},
		{3, 0.0005},
		{-2, 0.5},
	}
	for _, tt := range tests {
		if got := Tolerance(tt.roundTo); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Tolerance(%d) = %v, want %v", tt.roundTo, got, tt.want)
		}
	}
}

func TestRunnerCompare(t *testing.T) {
	its := []models.Iteration{
		iteration(0, 500, 500, 500, 120),
		iteration(1, 300, 300, 300, 900),
	}
	r := NewRunner(NewRegistry(&fixedPicker{}))

	reports, err := r.Compare([]string{"average", "classic", "median"}, its, 2)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	if reports[0].Algorithm != "classic" || reports[1].Algorithm != "median" || reports[2].Algorithm != "average" {
		t.Errorf("order = %s, %s, %s", reports[0].Algorithm, reports[1].Algorithm, reports[2].Algorithm)
	}
	if reports[2].Accuracy != 0 {
		t.Errorf("average accuracy = %v, want 0", reports[2].Accuracy)
	}

	if _, err := r.Compare([]string{"missing"}, its, 2); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("Compare() error = %v, want ErrUnknownAlgorithm", err)
	}
}
