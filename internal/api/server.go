// Package api exposes a simulation over HTTP and a websocket push stream.
// All access to the controller goes through the runner's lock.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/tetrasim/internal/analysis"
	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/sim"
)

const (
	Version            = "1.0.0"
	defaultHistoryLast = 100
)

// Server serves one simulation over HTTP.
type Server struct {
	Runner      *sim.Runner
	Hub         *Hub
	Port        int
	CORSOrigins []string
}

// NewServer wires the runner's tick callback to the websocket hub.
func NewServer(r *sim.Runner, port int, origins []string) *Server {
	s := &Server{
		Runner:      r,
		Hub:         NewHub(origins),
		Port:        port,
		CORSOrigins: origins,
	}
	r.OnTick = func(v sim.Visualization) {
		s.Hub.Broadcast(Message{Type: "simulation_update", Data: v})
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	mux.HandleFunc("GET /api/simulation/state", s.handleState)
	mux.HandleFunc("POST /api/simulation/start", s.handleStart)
	mux.HandleFunc("POST /api/simulation/stop", s.handleStop)
	mux.HandleFunc("POST /api/simulation/reset", s.handleReset)
	mux.HandleFunc("POST /api/simulation/config", s.handleConfig)

	mux.HandleFunc("POST /api/oscillators/create", s.handleCreate)
	mux.HandleFunc("GET /api/oscillators", s.handleOscillators)
	mux.HandleFunc("GET /api/oscillators/{id}", s.handleOscillator)
	mux.HandleFunc("DELETE /api/oscillators/{id}", s.handleRemove)
	mux.HandleFunc("GET /api/oscillators/{id}/history", s.handleHistory)

	mux.HandleFunc("GET /api/visualization/data", s.handleVisualization)
	mux.HandleFunc("GET /api/analytics/system", s.handleAnalytics)

	mux.HandleFunc("GET /api/ws", s.handleWS)

	return corsMiddleware(s.CORSOrigins, mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("HTTP API stopped")
	return nil
}

func (s *Server) snapshot() sim.Snapshot {
	var snap sim.Snapshot
	s.Runner.Do(func(c *sim.Controller) { snap = c.Snapshot() })
	return snap
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Particle Oscillation Simulation API",
		"version": Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var running bool
	s.Runner.Do(func(c *sim.Controller) { running = c.Running() })
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"timestamp":          time.Now().Format(time.RFC3339),
		"simulation_active":  running,
		"active_connections": s.Hub.Len(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"api_status":         "running",
		"simulation_running": snap.IsRunning,
		"particle_count":     snap.OscillatorCount,
		"simulation_time":    snap.SimulationTime,
		"fps":                snap.GlobalMetrics.CurrentFPS,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.Runner.Do(func(c *sim.Controller) { c.Start() })
	slog.Info("simulation started")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Simulation started", "running": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.Runner.Do(func(c *sim.Controller) { c.Stop() })
	slog.Info("simulation stopped")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Simulation stopped", "running": false})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Runner.Do(func(c *sim.Controller) { c.Reset() })
	slog.Info("simulation reset")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Simulation reset"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var u sim.ConfigUpdate
	if err := decodeBody(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var settings sim.Settings
	s.Runner.Do(func(c *sim.Controller) { settings = c.Configure(u) })
	slog.Info("simulation configured",
		"global_coupling", settings.GlobalCoupling,
		"environmental_noise", settings.EnvironmentalNoise,
		"update_rate", settings.UpdateRate,
	)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Configuration updated", "config": settings})
}

type createRequest struct {
	ParticleID string                 `json:"particle_id"`
	Parameters *dynamo.ParamsOverride `json:"parameters"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		id   string
		view sim.OscillatorView
		err  error
	)
	s.Runner.Do(func(c *sim.Controller) {
		id, err = c.CreateOscillator(req.ParticleID, req.Parameters)
		if err == nil {
			view, _ = c.Oscillator(id)
		}
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.Info("oscillator created", "particle", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Oscillator created",
		"particle_id": id,
		"parameters":  view.Parameters,
	})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var ok bool
	s.Runner.Do(func(c *sim.Controller) { ok = c.RemoveOscillator(id) })
	if !ok {
		writeError(w, http.StatusNotFound, "Oscillator not found")
		return
	}
	slog.Info("oscillator removed", "particle", id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Oscillator removed", "particle_id": id})
}

func (s *Server) handleOscillators(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"oscillator_count": snap.OscillatorCount,
		"oscillators":      snap.Oscillators,
	})
}

func (s *Server) handleOscillator(w http.ResponseWriter, r *http.Request) {
	var (
		view sim.OscillatorView
		ok   bool
	)
	s.Runner.Do(func(c *sim.Controller) { view, ok = c.Oscillator(r.PathValue("id")) })
	if !ok {
		writeError(w, http.StatusNotFound, "Oscillator not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lastN := defaultHistoryLast
	if v := r.URL.Query().Get("last_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "last_n must be an integer")
			return
		}
		lastN = n
	}

	var (
		history []sim.HistoryPoint
		ok      bool
	)
	s.Runner.Do(func(c *sim.Controller) { history, ok = c.History(id, lastN) })
	if !ok {
		writeError(w, http.StatusNotFound, "Oscillator not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"particle_id":    id,
		"history_length": len(history),
		"history":        history,
	})
}

func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	var v sim.Visualization
	s.Runner.Do(func(c *sim.Controller) { v = c.Visualization() })
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, ok := analysis.System(s.snapshot())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"message": "No oscillators in simulation"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.Hub.Serve(w, r, func() any { return s.snapshot() })
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dynamo.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dynamo.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dynamo.ErrParameterBounds):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// corsMiddleware allows the configured origins, or any origin when none are
// configured. Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	allowAny := len(origins) == 0

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAny || allowedOrigins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
