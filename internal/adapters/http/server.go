// Package http exposes a small control surface over a flowgraph engine:
// registry introspection, Prometheus metrics, and scenario submission.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/registry"
	"github.com/geontech/grflow/pkg/scenario"
)

// Engine is the surface of the grflow engine the server needs.
type Engine interface {
	Registry() *registry.Registry
	Build(sc *scenario.Scenario) (*graph.Top, error)
}

// Run statuses reported by GET /runs/{id}.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

type runState struct {
	ID       string     `json:"id"`
	Status   string     `json:"status"`
	Error    string     `json:"error,omitempty"`
	Started  time.Time  `json:"started"`
	Finished *time.Time `json:"finished,omitempty"`
}

// Server tracks submitted runs. Scenarios run in the background; the "user"
// run mode is rejected since there is no terminal to confirm on.
type Server struct {
	engine Engine
	logger *slog.Logger

	mu   sync.RWMutex
	runs map[string]*runState
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, logger *slog.Logger) http.Handler {
	s := &Server{
		engine: engine,
		logger: logger,
		runs:   make(map[string]*runState),
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Get("/blocks", s.blocks)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/runs", s.submit)
	r.Get("/runs/{id}", s.status)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type blockInfo struct {
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

func (s *Server) blocks(w http.ResponseWriter, r *http.Request) {
	reg := s.engine.Registry()
	out := make([]blockInfo, 0)
	for _, name := range reg.Types() {
		e, _ := reg.Lookup(name)
		out = append(out, blockInfo{Type: name, Summary: e.Summary})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sc, err := scenario.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.EqualFold(sc.Simulation.Type, "user") {
		http.Error(w, "interactive run mode is not available over HTTP", http.StatusBadRequest)
		return
	}
	if err := scenario.CheckRunMode(sc.Simulation); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	top, err := s.engine.Build(sc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	state := &runState{
		ID:      uuid.NewString(),
		Status:  StatusRunning,
		Started: time.Now().UTC(),
	}
	s.mu.Lock()
	s.runs[state.ID] = state
	s.mu.Unlock()

	go func() {
		err := scenario.Run(context.Background(), top, sc.Simulation, strings.NewReader(""))
		now := time.Now().UTC()
		s.mu.Lock()
		defer s.mu.Unlock()
		state.Finished = &now
		if err != nil {
			state.Status = StatusFailed
			state.Error = err.Error()
			s.logger.Error("submitted run failed", "run_id", state.ID, "error", err)
			return
		}
		state.Status = StatusFinished
		s.logger.Info("submitted run finished", "run_id", state.ID)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"id": state.ID})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	state, ok := s.runs[id]
	var snapshot runState
	if ok {
		snapshot = *state
	}
	s.mu.RUnlock()

	if !ok {
		http.Error(w, fmt.Sprintf("no such run %q", id), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
