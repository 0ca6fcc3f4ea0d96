package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/booksland/booksland/internal/config"
	"github.com/booksland/booksland/internal/notify"
	"github.com/booksland/booksland/internal/observability"
	"github.com/booksland/booksland/internal/pubsub"
	"github.com/booksland/booksland/internal/server"
	"github.com/booksland/booksland/internal/storage"
)

// NotifyHealthService is the gRPC health name of the change stream notifier.
const NotifyHealthService = "booksland.notify"

type notifier interface {
	Start(ctx context.Context) error
}

// Manager owns the process lifecycle: it wires every component from the
// configuration, runs them and tears them down in reverse order.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	provider   storage.Provider
	closeCache func() error
	publisher  pubsub.Publisher

	tracingShutdown observability.ShutdownFunc
	metrics         *observability.Metrics
	metricsServer   *observability.MetricsServer

	server   server.Service
	notifier notifier

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
	}
}

// Server returns the network service, nil before Init.
func (m *Manager) Server() server.Service {
	return m.server
}

// Metrics returns the metric registry owner, nil before Init.
func (m *Manager) Metrics() *observability.Metrics {
	return m.metrics
}

var _ notifier = (*notify.Service)(nil)
