package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Server exposes the monitor over HTTP: GET /healthz returns the aggregated
// report, 200 when healthy or degraded, 503 when unhealthy
type Server struct {
	port    int
	monitor *Monitor

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a health endpoint on the given port
func NewServer(port int, monitor *Monitor) *Server {
	return &Server{port: port, monitor: monitor}
}

// Start begins serving; it returns immediately
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("health server already running")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server failed", "port", s.port, "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	report := s.monitor.Report()

	w.Header().Set("Content-Type", "application/json")
	if report.State == StateUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(report); err != nil {
		slog.Warn("health response encode failed", "error", err)
	}
}
