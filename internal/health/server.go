// Package health serves liveness, readiness and metrics endpoints for the ingestion daemon.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/metrics"
	"github.com/yourusername/wealth-ops/internal/regime"
)

// DatabasePinger defines the interface for checking database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// RegimeReporter exposes the last stored market regime.
type RegimeReporter interface {
	CurrentStatus(ctx context.Context) regime.MarketStatus
}

// JobLister exposes scheduled jobs and their next run times.
type JobLister interface {
	NextRuns() map[string]time.Time
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Regime    string `json:"regime,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string               `json:"status"`
	Service  string               `json:"service"`
	Checks   map[string]string    `json:"checks,omitempty"`
	NextRuns map[string]time.Time `json:"next_runs,omitempty"`
	Duration string               `json:"duration,omitempty"`
}

// Server is a lightweight HTTP server for health check endpoints.
type Server struct {
	serviceName string
	version     string
	port        int
	metricsPath string
	server      *http.Server
	logger      *logrus.Logger
	db          DatabasePinger
	regime      RegimeReporter
	jobs        JobLister
	mu          sync.RWMutex
	ready       bool
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Port        int
	// MetricsPath mounts the Prometheus handler; empty disables it
	MetricsPath string
	Logger      *logrus.Logger
	DB          DatabasePinger
	Regime      RegimeReporter
	Jobs        JobLister
}

// NewServer creates a new health check server.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == 0 {
		port = 8080
	}

	return &Server{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		port:        port,
		metricsPath: cfg.MetricsPath,
		logger:      cfg.Logger,
		db:          cfg.DB,
		regime:      cfg.Regime,
		jobs:        cfg.Jobs,
	}
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler builds the endpoint mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	if s.metricsPath != "" {
		mux.Handle(s.metricsPath, metrics.Handler())
	}
	return mux
}

// Start starts the server in the background and stops it when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.serviceName,
				"metrics": s.metricsPath,
			}).Info("Health check server starting")
		}

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.WithError(err).Error("Health check server error")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the health check server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("Health check server shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// handleHealth handles the /health endpoint - basic liveness check plus the stored regime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
	}
	if s.regime != nil {
		response.Regime = string(s.regime.CurrentStatus(r.Context()))
	}

	writeJSON(w, http.StatusOK, response)
}

// handleLive handles the /live endpoint - kubernetes liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: s.serviceName})
}

// handleReady handles the /ready endpoint - checks database connectivity.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !s.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			allHealthy = false
			checks["database"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["database"] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  s.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	if s.jobs != nil {
		response.NextRuns = s.jobs.NextRuns()
	}

	status := http.StatusOK
	response.Status = "ok"
	if !allHealthy {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
