package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/service"
	"github.com/nvandessel/voteanalysis/internal/simulation"
	"github.com/nvandessel/voteanalysis/internal/store"
	"github.com/nvandessel/voteanalysis/internal/vote"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, vote.ErrUnknownAlgorithm):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrLeaderboardDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// listAlgorithms handles GET /v1/algorithms
func (s *Server) listAlgorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"algorithms": s.svc.Algorithms()})
}

// listModules handles GET /v1/modules
func (s *Server) listModules(w http.ResponseWriter, r *http.Request) {
	mods, err := s.svc.Modules(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if mods == nil {
		mods = []*models.Module{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"modules": mods})
}

// ImportModuleRequest is the request body for POST /v1/modules.
type ImportModuleRequest struct {
	simulation.Scenario
	Seed uint64 `json:"seed,omitempty"`
}

// importModule handles POST /v1/modules
func (s *Server) importModule(w http.ResponseWriter, r *http.Request) {
	var req ImportModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := s.svc.ImportScenario(r.Context(), &req.Scenario, req.Seed)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// getModule handles GET /v1/modules/{module}
func (s *Server) getModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Module(r.Context(), mux.Vars(r)["module"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// AddVersionRequest is the request body for POST /v1/modules/{module}/versions.
type AddVersionRequest struct {
	simulation.VersionSpec
	Seed uint64 `json:"seed,omitempty"`
}

// addVersion handles POST /v1/modules/{module}/versions
func (s *Server) addVersion(w http.ResponseWriter, r *http.Request) {
	var req AddVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := s.svc.AddVersion(r.Context(), mux.Vars(r)["module"], req.VersionSpec, req.Seed)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// listExperiments handles GET /v1/modules/{module}/experiments
func (s *Server) listExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := s.svc.Experiments(r.Context(), mux.Vars(r)["module"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if exps == nil {
		exps = []store.ExperimentSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"experiments": exps})
}

// generate handles POST /v1/modules/{module}/experiments
func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req service.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Module = mux.Vars(r)["module"]
	res, err := s.svc.Generate(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// getExperiment handles GET /v1/modules/{module}/experiments/{experiment}
func (s *Server) getExperiment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	_, iterations, err := s.svc.Experiment(r.Context(), vars["module"], vars["experiment"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"module":     vars["module"],
		"experiment": vars["experiment"],
		"iterations": iterations,
	})
}

// VoteRequest is the request body for POST .../votes.
type VoteRequest struct {
	Algorithm string `json:"algorithm"`
	Save      bool   `json:"save,omitempty"`
}

// vote handles POST /v1/modules/{module}/experiments/{experiment}/votes
func (s *Server) vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	vars := mux.Vars(r)
	res, err := s.svc.Vote(r.Context(), service.VoteRequest{
		Module:     vars["module"],
		Experiment: vars["experiment"],
		Algorithm:  req.Algorithm,
		Save:       req.Save,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// analyze handles GET /v1/modules/{module}/experiments/{experiment}/analysis
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reports, err := s.svc.Analyze(r.Context(), vars["module"], vars["experiment"], r.URL.Query()["algorithm"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

// leaderboard handles GET /v1/modules/{module}/experiments/{experiment}/leaderboard
func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	vars := mux.Vars(r)
	entries, err := s.svc.Leaderboard(r.Context(), vars["module"], vars["experiment"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}
