// Package api provides the HTTP API server for the CX Insights service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthCheckTimeout = 2 * time.Second

	serviceName    = "cx-insights"
	serviceVersion = "1.0.0-dev"
)

type (
	// Version represents the API version response structure.
	Version struct {
		Version     string `json:"version"`
		ServiceName string `json:"serviceName"`
	}

	// HealthStatus represents the health check response structure.
	HealthStatus struct {
		Status      string `json:"status"`
		ServiceName string `json:"serviceName"`
		Version     string `json:"version"`
		Uptime      string `json:"uptime,omitempty"`
	}
)

// setupRoutes sets up all HTTP routes for the API server.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Ops endpoints
	mux.HandleFunc("GET /ping", s.handlePing)     // K8s liveness probe
	mux.HandleFunc("GET /ready", s.handleReady)   // K8s readiness probe
	mux.HandleFunc("GET /health", s.handleHealth) // Basic health check - status, uptime, version
	mux.HandleFunc("GET /api/v1/version", s.handleVersion)
	mux.HandleFunc("/", s.handleNotFound) // Catch-all handler for 404 responses

	// Dashboard endpoints
	mux.HandleFunc("GET /api/v1/dimensions", s.handleDimensions)
	mux.HandleFunc("GET /api/v1/rankings", s.handleRankings)
	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/filters", s.handleApplyFilters)
	mux.HandleFunc("GET /api/v1/sessions/{id}/dashboard", s.handleDashboard)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
}

// handlePing responds to ping requests for basic server validation.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		s.logger.Error("Failed to write ping response",
			slog.String("error", err.Error()),
		)
	}
}

// handleReady responds to Kubernetes readiness probes with a record-store
// reachability check. Returns 503 when the store is unreachable so traffic is
// withheld until it recovers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	pinger, ok := s.store.(Pinger)
	if !ok {
		// Store without a reachability check (e.g. in-memory test double)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))

		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := pinger.Ping(ctx); err != nil {
		s.logger.Error("Record store health check failed",
			slog.String("error", err.Error()),
		)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))

		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleHealth returns basic service health including uptime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:      "ok",
		ServiceName: serviceName,
		Version:     serviceVersion,
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
	}

	s.writeJSON(w, r, http.StatusOK, status)
}

// handleVersion returns the service version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, Version{
		Version:     serviceVersion,
		ServiceName: serviceName,
	})
}

// handleNotFound is the catch-all for unknown paths.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r, s.logger, NotFound("The requested resource does not exist"))
}

// writeJSON encodes v as the response body with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}
