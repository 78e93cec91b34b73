// Package api exposes the read-only status HTTP surface used by `stockwatch
// serve`: current resolution state, a manual refresh trigger, and a health
// probe. The API never mutates preferences; it only reads engine state and
// requests cycles.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/render"
	"github.com/example/stockwatch/internal/version"
)

// Engine is the scheduler surface the API needs. *sched.Scheduler
// implements it.
type Engine interface {
	State() model.ResolutionState
	Refresh()
}

// Server wraps the chi router serving the status API.
type Server struct {
	engine Engine
	router chi.Router
}

// New builds the API server around an engine.
func New(engine Engine) *Server {
	s := &Server{engine: engine}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/v1/state", s.handleState)
	r.Post("/v1/refresh", s.handleRefresh)
	r.Get("/v1/healthz", s.handleHealthz)

	s.router = r
	return s
}

// Handler returns the http.Handler for mounting or serving.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves the API on addr until the server errors.
func (s *Server) ListenAndServe(addr string) error {
	slog.Info("status API listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := render.Result(w, s.engine.State(), render.FormatJSON); err != nil {
		slog.Warn("encoding state response failed", "error", err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.engine.Refresh()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"refresh requested"}` + "\n"))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + version.Current + `"}` + "\n"))
}
