package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the Prometheus scrape endpoint on its own port.
type MetricsServer struct {
	cfg    MetricsConfig
	logger *slog.Logger
	srv    *http.Server

	mu  sync.Mutex
	lis net.Listener
}

func NewMetricsServer(cfg MetricsConfig, m *Metrics, logger *slog.Logger) *MetricsServer {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("GET "+cfg.Path, promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{Registry: m.Registry()}))

	return &MetricsServer{
		cfg:    cfg,
		logger: logger.With("component", "metrics"),
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start listens and serves until Stop is called. It returns an error only if
// the listener cannot be opened.
func (s *MetricsServer) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("metrics listen error: %w", err)
	}
	s.mu.Lock()
	s.lis = lis
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("metrics server listening on port %d", s.cfg.Port))
	go func() {
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()
	return nil
}

func (s *MetricsServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Addr returns the bound address, empty before Start.
func (s *MetricsServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}
