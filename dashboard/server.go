// CLAUDE:SUMMARY Read-only HTTP server for the dashboard: rendered page, snapshot/changes JSON, health probe.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/legiswatch/runlog"
	"github.com/hazyhaar/legiswatch/tracker/bill"
	"github.com/hazyhaar/legiswatch/tracker/run"
)

// Provider supplies the latest persisted run view. Implemented by the
// tracker; the server never writes state.
type Provider interface {
	LatestResult() (*run.Result, error)
}

// History supplies recorded run history, newest first. Implemented by the
// runlog store.
type History interface {
	Recent(ctx context.Context, limit int) ([]runlog.Entry, error)
}

// Server serves the dashboard and a small read-only JSON API.
type Server struct {
	provider Provider
	history  History
	logger   *slog.Logger
	router   chi.Router
}

// Option customises the server.
type Option func(*Server)

// WithHistory exposes recorded run history at /api/runs.
func WithHistory(h History) Option { return func(s *Server) { s.history = h } }

// NewServer creates a dashboard server backed by provider.
func NewServer(provider Provider, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{provider: provider, logger: logger}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/changes", s.handleChanges)
	r.Get("/api/runs", s.handleRuns)
	r.Get("/healthz", s.handleHealth)
	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	res, err := s.provider.LatestResult()
	if err != nil {
		s.logger.Error("dashboard: load state failed", "error", err)
		http.Error(w, "state unavailable", http.StatusInternalServerError)
		return
	}
	page, err := Render(res)
	if err != nil {
		s.logger.Error("dashboard: render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := s.provider.LatestResult()
	if err != nil {
		http.Error(w, "state unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, res.Snapshot)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	res, err := s.provider.LatestResult()
	if err != nil {
		http.Error(w, "state unavailable", http.StatusInternalServerError)
		return
	}
	changes := res.Changes
	if changes == nil {
		changes = []bill.ChangeEntry{}
	}
	writeJSON(w, changes)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "run history not enabled", http.StatusNotFound)
		return
	}
	entries, err := s.history.Recent(r.Context(), 20)
	if err != nil {
		s.logger.Error("dashboard: run history query failed", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []runlog.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
