package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"grammarsym/internal/query"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// observabilityServer exposes /metrics and a /health probe backed by the
// workspace state.
type observabilityServer struct {
	addr   string
	health func(context.Context) query.HealthStatus
	server *http.Server
}

func newObservabilityServer(addr string, health func(context.Context) query.HealthStatus) *observabilityServer {
	return &observabilityServer{addr: addr, health: health}
}

func (s *observabilityServer) Start() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.health(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("observability server starting", "addr", s.addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("observability server failed", "error", err)
		}
	}()
}

func (s *observabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
