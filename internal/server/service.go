// Package server runs the HTTP API and the gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type serverImpl struct {
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
	observer RequestObserver

	// HTTP State
	httpMux      *http.ServeMux
	httpServer   *http.Server
	httpListener net.Listener

	// gRPC State
	grpcServer   *grpc.Server
	grpcListener net.Listener
	health       *health.Server

	// Lifecycle State
	mu      sync.Mutex
	started bool
	ready   chan struct{}
}

// Option configures optional server collaborators.
type Option func(*serverImpl)

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *serverImpl) { s.tracer = t }
}

// WithRequestObserver reports every request to o.
func WithRequestObserver(o RequestObserver) Option {
	return func(s *serverImpl) { s.observer = o }
}

// New creates a new Service instance.
func New(cfg Config, logger *slog.Logger, opts ...Option) Service {
	return newServer(cfg, logger, opts...)
}

func newServer(cfg Config, logger *slog.Logger, opts ...Option) *serverImpl {
	if logger == nil {
		logger = slog.Default()
	}

	s := &serverImpl{
		cfg:     cfg,
		logger:  logger.With("component", "server"),
		tracer:  otel.Tracer("github.com/booksland/booksland/internal/server"),
		httpMux: http.NewServeMux(),
		health:  health.NewServer(),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Initialize gRPC server immediately to allow registration
	s.grpcServer = grpc.NewServer(
		grpc.MaxConcurrentStreams(uint32(s.cfg.GRPC.MaxConcurrent)),
		s.unaryInterceptors(),
	)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	if s.cfg.GRPC.EnableReflection {
		reflection.Register(s.grpcServer)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

func (s *serverImpl) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("http listen error: %w", err)
	}
	s.httpListener = lis
	s.initHTTPServer()

	if s.cfg.GRPC.Enabled {
		glis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.GRPC.Port))
		if err != nil {
			_ = lis.Close()
			s.mu.Unlock()
			return fmt.Errorf("grpc listen error: %w", err)
		}
		s.grpcListener = glis
	}
	s.mu.Unlock()

	errChan := make(chan error, 2)

	go s.runHTTPServer(lis, errChan)
	if s.grpcListener != nil {
		go s.runGRPCServer(s.grpcListener, errChan)
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	close(s.ready)

	// Wait for Error or Context Cancellation
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return nil // Normal shutdown signal
	}
}

func (s *serverImpl) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.health.Shutdown()

	var wg sync.WaitGroup
	errChan := make(chan error, 1)

	// Shutdown HTTP
	if s.httpServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Info("Stopping HTTP server")
			if err := s.httpServer.Shutdown(ctx); err != nil {
				errChan <- fmt.Errorf("http shutdown error: %w", err)
			}
		}()
	}

	// Shutdown gRPC
	wg.Add(1)
	go func() {
		defer wg.Done()
		done := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("Context deadline exceeded, forcing gRPC stop")
			s.grpcServer.Stop()
		}
	}()

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *serverImpl) RegisterHTTPHandler(pattern string, handler http.Handler) {
	s.httpMux.Handle(pattern, handler)
}

func (s *serverImpl) RegisterGRPCService(desc *grpc.ServiceDesc, impl interface{}) {
	s.grpcServer.RegisterService(desc, impl)
}

func (s *serverImpl) HTTPMux() *http.ServeMux {
	return s.httpMux
}

func (s *serverImpl) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// addrs returns the bound HTTP and gRPC addresses once Start has listened.
func (s *serverImpl) addrs() (httpAddr, grpcAddr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpListener != nil {
		httpAddr = s.httpListener.Addr().String()
	}
	if s.grpcListener != nil {
		grpcAddr = s.grpcListener.Addr().String()
	}
	return httpAddr, grpcAddr
}
