// ABOUTME: Read-only HTTP status surface over run history and live pipeline state.
// ABOUTME: Serves run records from SQLite and the live.json snapshot from the state directory.

package workflow

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatusServer exposes run history and live progress over HTTP. It never
// mutates pipeline state.
type StatusServer struct {
	store    *RunStore
	stateDir string
	router   chi.Router
	addr     string
}

// NewStatusServer builds the status server over the given store and state
// directory.
func NewStatusServer(addr string, store *RunStore, stateDir string) *StatusServer {
	s := &StatusServer{
		store:    store,
		stateDir: stateDir,
		addr:     addr,
	}
	s.router = s.buildRouter()
	return s
}

func (s *StatusServer) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/runs", s.handleRunList)
	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", s.handleRunDetail)
		r.Get("/live", s.handleRunLive)
	})

	return r
}

// ListenAndServe blocks serving HTTP on the configured address.
func (s *StatusServer) ListenAndServe() error {
	log.Printf("status server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.router)
}

// Handler returns the underlying router, for tests and embedding.
func (s *StatusServer) Handler() http.Handler {
	return s.router
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *StatusServer) handleRunList(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *StatusServer) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, http.StatusNotFound, "run not found: "+id)
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stages, err := s.store.GetStages(id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stages == nil {
		stages = []StageRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"run": run, "stages": stages})
}

// handleRunLive serves the run's live.json snapshot written by the progress
// logger. Returns 404 until the run has produced a snapshot.
func (s *StatusServer) handleRunLive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	path := filepath.Join(s.stateDir, id, "live.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		writeJSONError(w, http.StatusNotFound, "no live state for run: "+id)
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
