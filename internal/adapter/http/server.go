// Package http exposes the optional metrics and run-status endpoints for
// long-running or repeated extraction jobs.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunStatus tracks the progress of the current extraction run for the
// /statusz endpoint. Safe for concurrent use.
type RunStatus struct {
	mu sync.Mutex

	started           time.Time
	currentDiagnostic string
	diagnosticsDone   int
	sitesExtracted    int
	sitesFailed       int
}

// NewRunStatus starts tracking a run from now.
func NewRunStatus() *RunStatus {
	return &RunStatus{started: time.Now()}
}

// BeginDiagnostic records that extraction of the named diagnostic started.
func (r *RunStatus) BeginDiagnostic(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentDiagnostic = name
}

// FinishDiagnostic records the per-site outcome counts of one diagnostic.
func (r *RunStatus) FinishDiagnostic(extracted, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentDiagnostic = ""
	r.diagnosticsDone++
	r.sitesExtracted += extracted
	r.sitesFailed += failed
}

type statusSnapshot struct {
	Status            string `json:"status"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	CurrentDiagnostic string `json:"current_diagnostic,omitempty"`
	DiagnosticsDone   int    `json:"diagnostics_done"`
	SitesExtracted    int    `json:"sites_extracted"`
	SitesFailed       int    `json:"sites_failed"`
}

func (r *RunStatus) snapshot() statusSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "idle"
	if r.currentDiagnostic != "" {
		status = "extracting"
	}
	return statusSnapshot{
		Status:            status,
		UptimeSeconds:     int64(time.Since(r.started).Seconds()),
		CurrentDiagnostic: r.currentDiagnostic,
		DiagnosticsDone:   r.diagnosticsDone,
		SitesExtracted:    r.sitesExtracted,
		SitesFailed:       r.sitesFailed,
	}
}

// Server exposes health, run-status, and metrics HTTP endpoints while a run
// is active.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /statusz, and /metrics
// routes.
func NewServer(addr string, status *RunStatus, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /statusz", handleStatus(status))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("metrics server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleStatus(status *RunStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, status.snapshot())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
