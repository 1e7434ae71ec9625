// Package health exposes the health and metrics HTTP endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ndhoang/contractwatch/internal/monitor"
)

// StatusFunc supplies the current per-chain monitor snapshots.
type StatusFunc func() []monitor.Status

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	statuses StatusFunc
	server   *http.Server
}

// NewServer creates a new health server.
func NewServer(statuses StatusFunc, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		statuses: statuses,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses := s.statuses()

	// Aggregate status (worst case wins)
	healthy := true
	for _, st := range statuses {
		if st.State != "running" {
			healthy = false
			break
		}
	}

	status := "ok"
	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.statuses())
}
