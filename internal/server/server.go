// Package server exposes modules, experiments and votes over a JSON REST API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nvandessel/voteanalysis/internal/ratelimit"
	"github.com/nvandessel/voteanalysis/internal/service"
)

const apiPrefix = "/v1"

// Server serves the REST API.
type Server struct {
	svc      *service.Service
	limiters ratelimit.Limiters
	logger   *slog.Logger
	router   *mux.Router
}

// New creates a server over svc. A nil limiters map disables rate limiting.
func New(svc *service.Service, limiters ratelimit.Limiters, logger *slog.Logger) *Server {
	s := &Server{svc: svc, limiters: limiters, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Routes sit on the root router; a PathPrefix subrouter reports a method
	// mismatch as 404.
	v1 := func(path string) string { return apiPrefix + path }

	r.HandleFunc(v1("/algorithms"), s.listAlgorithms).Methods("GET")
	r.HandleFunc(v1("/modules"), s.listModules).Methods("GET")
	r.Handle(v1("/modules"), s.limit(ratelimit.OpImport, s.importModule)).Methods("POST")
	r.HandleFunc(v1("/modules/{module}"), s.getModule).Methods("GET")
	r.Handle(v1("/modules/{module}/versions"), s.limit(ratelimit.OpImport, s.addVersion)).Methods("POST")

	r.HandleFunc(v1("/modules/{module}/experiments"), s.listExperiments).Methods("GET")
	r.Handle(v1("/modules/{module}/experiments"), s.limit(ratelimit.OpGenerate, s.generate)).Methods("POST")
	r.HandleFunc(v1("/modules/{module}/experiments/{experiment}"), s.getExperiment).Methods("GET")
	r.Handle(v1("/modules/{module}/experiments/{experiment}/votes"), s.limit(ratelimit.OpVote, s.vote)).Methods("POST")
	r.Handle(v1("/modules/{module}/experiments/{experiment}/analysis"), s.limit(ratelimit.OpAnalyze, s.analyze)).Methods("GET")
	r.HandleFunc(v1("/modules/{module}/experiments/{experiment}/leaderboard"), s.leaderboard).Methods("GET")

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path))
	})

	return r
}

func (s *Server) limit(op string, h http.HandlerFunc) http.Handler {
	if s.limiters == nil {
		return h
	}
	return s.limiters.Middleware(op)(h)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("http server listening", "addr", addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}
