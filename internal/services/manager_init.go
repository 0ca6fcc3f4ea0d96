package services

import (
	"context"
	"fmt"

	"github.com/booksland/booksland/internal/cache"
	"github.com/booksland/booksland/internal/gateway"
	"github.com/booksland/booksland/internal/notify"
	"github.com/booksland/booksland/internal/observability"
	"github.com/booksland/booksland/internal/pubsub"
	natspub "github.com/booksland/booksland/internal/pubsub/nats"
	"github.com/booksland/booksland/internal/server"
	"github.com/booksland/booksland/internal/storage"
	"github.com/booksland/booksland/internal/storage/mongo"
)

// Swappable in tests.
var (
	newStorageProvider = mongo.NewProvider
	connectNATS        = natspub.Connect
	newRedisCache      = func(ctx context.Context, cfg cache.Config) (cache.Backend, func() error, error) {
		c, err := cache.NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
	setupTracing = observability.SetupTracing
)

// Init builds every component. On error the components created so far are
// left for Shutdown to release.
func (m *Manager) Init(ctx context.Context) error {
	shutdown, err := setupTracing(ctx, m.cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	m.tracingShutdown = shutdown

	m.metrics = observability.NewMetrics()
	if m.cfg.Metrics.Enabled {
		m.metricsServer = observability.NewMetricsServer(m.cfg.Metrics, m.metrics, m.logger)
	}

	provider, err := newStorageProvider(ctx, m.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	m.provider = provider

	books := m.initBookCache(ctx, provider.Books())

	if err := m.initPublisher(ctx); err != nil {
		return err
	}

	m.server = server.New(m.cfg.Server, m.logger, server.WithRequestObserver(m.metrics))
	api := gateway.NewServer(gateway.Stores{
		Books:    books,
		Ledger:   provider.Ledger(),
		WebHooks: provider.WebHooks(),
	}, m.cfg.BaseURL, m.cfg.Gateway, m.logger)
	api.RegisterRoutes(m.server.HTTPMux())

	if m.cfg.Notify.Enabled {
		m.initNotifier(provider)
	}
	return nil
}

// initBookCache puts the Redis read-through cache in front of the book store.
// A cache that cannot be reached is logged and skipped.
func (m *Manager) initBookCache(ctx context.Context, books storage.BookStore) storage.BookStore {
	if !m.cfg.Cache.Enabled {
		return books
	}
	backend, closeFn, err := newRedisCache(ctx, m.cfg.Cache)
	if err != nil {
		m.logger.Warn("Book cache disabled", "addr", m.cfg.Cache.Addr, "error", err)
		return books
	}
	m.closeCache = closeFn
	m.logger.Info("Book cache enabled", "addr", m.cfg.Cache.Addr)
	return cache.NewBookStore(books, backend, m.logger)
}

func (m *Manager) initPublisher(ctx context.Context) error {
	if !m.cfg.PubSub.Enabled {
		m.publisher = pubsub.Noop()
		return nil
	}
	pub, err := connectNATS(ctx, m.cfg.PubSub, m.metrics.ObservePublish)
	if err != nil {
		return fmt.Errorf("failed to connect publisher: %w", err)
	}
	m.publisher = pub
	m.logger.Info("Availability events enabled", "url", m.cfg.PubSub.URL, "stream", m.cfg.PubSub.StreamName)
	return nil
}

func (m *Manager) initNotifier(provider storage.Provider) {
	evaluator := notify.NewEvaluator(notify.NewLedgerReader(provider.Ledger()))
	dispatcher := notify.NewDispatcher(notify.DispatcherOptions{
		BaseURL:        m.cfg.BaseURL,
		Timeout:        m.cfg.Notify.HTTPTimeout,
		MaxConcurrency: m.cfg.Notify.MaxConcurrency,
		Metrics:        m.metrics,
	})
	engine := notify.NewEngine(
		notify.NewSubscriberDirectory(provider.WebHooks()),
		evaluator,
		dispatcher,
		notify.WithPublisher(m.publisher),
		notify.WithMetrics(m.metrics),
		notify.WithLogger(m.logger),
	)
	sources := []notify.Source{
		{Label: "Order", Collection: m.cfg.Storage.Collections.Orders},
		{Label: "Delivery", Collection: m.cfg.Storage.Collections.Deliveries},
	}
	m.notifier = notify.NewService(provider.Changes(), sources, notify.NewListener(engine, m.logger), m.cfg.Notify.QueueSize, m.logger)
}
