package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/ratelimit"
	"github.com/nvandessel/voteanalysis/internal/service"
	"github.com/nvandessel/voteanalysis/internal/store"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

const importBody = `{
  "name": "sorting",
  "round_to": 1,
  "seed": 5,
  "versions": [
    {"name": "quick", "const_coordinates": [1, 0], "reliability": 0.9},
    {"name": "merge", "const_coordinates": [1, 0.01], "reliability": 0.8},
    {"name": "heap", "const_coordinates": [9, 9], "reliability_interval": {"min": 0.5, "max": 0.7}}
  ]
}`

func newTestServer(t *testing.T, limiters ratelimit.Limiters) http.Handler {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), store.DatabaseFileName))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	svc := service.New(st, vote.NewRegistry(models.NewRandomSource(1)))
	return New(svc, limiters, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestExperimentFlow(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, "POST", "/v1/modules", importBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body)
	}
	var m models.Module
	decode(t, rec, &m)
	if m.ID == 0 || len(m.Versions) != 3 {
		t.Fatalf("imported module = %+v", m)
	}

	rec = do(t, h, "GET", "/v1/modules", "")
	var list struct {
		Modules []models.Module `json:"modules"`
	}
	decode(t, rec, &list)
	if len(list.Modules) != 1 || list.Modules[0].Name != "sorting" {
		t.Errorf("modules = %+v", list.Modules)
	}

	rec = do(t, h, "POST", "/v1/modules/sorting/experiments", `{"iterations": 10, "experiment": "exp", "seed": 9}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate status = %d: %s", rec.Code, rec.Body)
	}
	var gen service.GenerateResult
	decode(t, rec, &gen)
	if gen.Experiment != "exp" || gen.Count != 10 || !gen.Persisted {
		t.Errorf("generate = %+v", gen)
	}

	rec = do(t, h, "GET", "/v1/modules/sorting/experiments/exp", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get experiment status = %d", rec.Code)
	}
	var exp struct {
		Iterations []models.Iteration `json:"iterations"`
	}
	decode(t, rec, &exp)
	if len(exp.Iterations) != 10 {
		t.Errorf("experiment has %d iterations, want 10", len(exp.Iterations))
	}

	rec = do(t, h, "POST", "/v1/modules/sorting/experiments/exp/votes", `{"algorithm": "average", "save": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("vote status = %d: %s", rec.Code, rec.Body)
	}
	var voted service.VoteResult
	decode(t, rec, &voted)
	if len(voted.Outcomes) != 10 || voted.Saved != gen.Results {
		t.Errorf("vote = %d outcomes, %d saved", len(voted.Outcomes), voted.Saved)
	}

	rec = do(t, h, "GET", "/v1/modules/sorting/experiments/exp/analysis?algorithm=median&algorithm=classic", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analysis status = %d: %s", rec.Code, rec.Body)
	}
	var analysis struct {
		Reports []vote.Report `json:"reports"`
	}
	decode(t, rec, &analysis)
	if len(analysis.Reports) != 2 {
		t.Errorf("analysis = %+v", analysis.Reports)
	}

	rec = do(t, h, "GET", "/v1/modules/sorting/experiments", "")
	var exps struct {
		Experiments []store.ExperimentSummary `json:"experiments"`
	}
	decode(t, rec, &exps)
	if len(exps.Experiments) != 1 || exps.Experiments[0].Iterations != 10 {
		t.Errorf("experiments = %+v", exps.Experiments)
	}
}

func TestAddVersion(t *testing.T) {
	h := newTestServer(t, nil)
	if rec := do(t, h, "POST", "/v1/modules", `{"name": "empty", "versions": []}`); rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body)
	}

	rec := do(t, h, "POST", "/v1/modules/empty/versions",
		`{"name": "a", "const_coordinates": [1, 2], "dynamic_intervals": [{"min": 0, "max": 1}], "reliability": 0.7}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add version status = %d: %s", rec.Code, rec.Body)
	}
	var v models.Version
	decode(t, rec, &v)
	if v.ID == 0 || len(v.DynamicCoordinates) != 1 {
		t.Errorf("version = %+v", v)
	}

	rec = do(t, h, "POST", "/v1/modules/empty/versions", `{"name": "b", "const_coordinates": [1], "reliability": 0.7}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mismatched version status = %d, want 400", rec.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	h := newTestServer(t, nil)
	do(t, h, "POST", "/v1/modules", importBody)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown module", "GET", "/v1/modules/nope", "", http.StatusNotFound},
		{"unknown experiment", "GET", "/v1/modules/sorting/experiments/nope", "", http.StatusNotFound},
		{"bad body", "POST", "/v1/modules/sorting/experiments", "{", http.StatusBadRequest},
		{"negative iterations", "POST", "/v1/modules/sorting/experiments", `{"iterations": -1}`, http.StatusBadRequest},
		{"too many iterations", "POST", "/v1/modules/sorting/experiments", `{"iterations": 4611686018427387904}`, http.StatusBadRequest},
		{"unknown algorithm", "POST", "/v1/modules/sorting/experiments/x/votes", `{"algorithm": "dice"}`, http.StatusBadRequest},
		{"leaderboard disabled", "GET", "/v1/modules/sorting/experiments/x/leaderboard", "", http.StatusServiceUnavailable},
		{"bad limit", "GET", "/v1/modules/sorting/experiments/x/leaderboard?limit=0", "", http.StatusBadRequest},
		{"duplicate module", "POST", "/v1/modules", importBody, http.StatusConflict},
		{"wrong method", "DELETE", "/v1/modules/sorting", "", http.StatusMethodNotAllowed},
		{"wrong method on collection", "PUT", "/v1/modules", "", http.StatusMethodNotAllowed},
		{"unknown path", "GET", "/v1/nothing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestGenerateRateLimited(t *testing.T) {
	h := newTestServer(t, ratelimit.Limiters{ratelimit.OpGenerate: ratelimit.NewLimiter(0, 1)})
	do(t, h, "POST", "/v1/modules", importBody)

	if rec := do(t, h, "POST", "/v1/modules/sorting/experiments", `{"iterations": 1}`); rec.Code != http.StatusCreated {
		t.Fatalf("first generate status = %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/v1/modules/sorting/experiments", `{"iterations": 1}`); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second generate status = %d, want 429", rec.Code)
	}
	if rec := do(t, h, "GET", "/v1/modules/sorting/experiments", ""); rec.Code != http.StatusOK {
		t.Errorf("reads should not be limited, status = %d", rec.Code)
	}
}
