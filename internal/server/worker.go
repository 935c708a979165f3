package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwbudde/swarmseed/internal/pso"
)

// Worker is a stateless fitness evaluator. It holds no swarm state and has
// no authority over the optimization; it only scores the position batches
// the coordinator sends it.
type Worker struct {
	objective pso.Objective
	addr      string
	server    *http.Server
}

// NewWorker creates a worker serving the given objective.
func NewWorker(addr string, objective pso.Objective) *Worker {
	return &Worker{
		objective: objective,
		addr:      addr,
	}
}

// Handler returns the worker's HTTP handler, exposed separately so tests
// can drive it through httptest without a listening socket.
func (w *Worker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", w.handleHealth)
	mux.HandleFunc("/api/v1/evaluate", w.handleEvaluate)
	return w.loggingMiddleware(mux)
}

// Start starts the HTTP server and blocks until it stops.
func (w *Worker) Start() error {
	w.server = &http.Server{
		Addr:    w.addr,
		Handler: w.Handler(),
	}
	slog.Info("Starting evaluation worker", "addr", w.addr)
	return w.server.ListenAndServe()
}

// Shutdown gracefully shuts down the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down evaluation worker")
	if w.server != nil {
		return w.server.Shutdown(ctx)
	}
	return nil
}

func (w *Worker) handleHealth(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(http.StatusOK)
	fmt.Fprintln(rw, "ok")
}

func (w *Worker) handleEvaluate(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(rw, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Positions) == 0 {
		writeError(rw, http.StatusBadRequest, "empty position batch")
		return
	}

	fitness := make(FitnessValues, len(req.Positions))
	for i, pos := range req.Positions {
		fitness[i] = w.objective(pos)
	}

	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(EvaluateResponse{Fitness: fitness}); err != nil {
		slog.Error("Failed to encode evaluate response", "error", err)
	}
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(ErrorResponse{Error: msg})
}

// loggingMiddleware logs each request with its run correlation ID.
func (w *Worker) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(rw, r)
		slog.Debug("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"run_id", r.Header.Get(RunIDHeader),
			"duration", time.Since(start),
		)
	})
}
