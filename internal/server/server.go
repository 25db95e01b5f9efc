// Package server exposes the broker runners over HTTP for the dashboard.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"atlas-broker-runner/internal/interfaces"
	"atlas-broker-runner/internal/policy"
	"atlas-broker-runner/internal/runner"
	"atlas-broker-runner/internal/store"
)

// RunnerSource hands out runners by broker key.
type RunnerSource interface {
	Get(key string) (interfaces.Runner, error)
}

type Server struct {
	cfg     *store.Config
	runners RunnerSource
	policy  *policy.Client
}

func New(cfg *store.Config, runners RunnerSource, policyClient *policy.Client) *Server {
	return &Server{cfg: cfg, runners: runnersOrPanic(runners), policy: policyClient}
}

func runnersOrPanic(r RunnerSource) RunnerSource {
	if r == nil {
		panic("server: nil runner source")
	}
	return r
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/broker/{broker}", func(r chi.Router) {
			r.Post("/connect", s.handleConnect)
			r.Post("/login", s.handleLogin)
			r.Get("/health", s.handleHealth)
			r.Get("/status", s.handleStatus)
			r.Post("/order", s.handleOrder)
			r.Get("/debug", s.handleDebug)
		})
		r.Post("/trade/auto", s.handleAutoTrade)
	})

	return r
}

func (s *Server) runnerFrom(r *http.Request) (interfaces.Runner, string, error) {
	key := chi.URLParam(r, "broker")
	run, err := s.runners.Get(key)
	return run, key, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]any{"error": err.Error()})
}

// errorStatus maps runner failures onto HTTP status codes: bad requests
// are the caller's fault, login failures mean the upstream platform
// rejected us, everything else is ours.
func errorStatus(err error) int {
	var ve *runner.ValidationError
	if errors.As(err, &ve) || errors.Is(err, runner.ErrMissingCredentials) {
		return http.StatusBadRequest
	}
	var lf *runner.LoginFailureError
	if errors.As(err, &lf) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
