package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/booksland/booksland/internal/cache"
	"github.com/booksland/booksland/internal/config"
	"github.com/booksland/booksland/internal/notify"
	"github.com/booksland/booksland/internal/pubsub"
	"github.com/booksland/booksland/internal/storage"
	storageconfig "github.com/booksland/booksland/internal/storage/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	hooks    []*storage.WebHook
	orders   map[string]int64
	streams  map[string]chan storage.ChangeEvent
	watched  chan string
	closed   bool
	watchErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		orders:  map[string]int64{},
		streams: map[string]chan storage.ChangeEvent{},
		watched: make(chan string, 4),
	}
}

func (p *fakeProvider) Books() storage.BookStore       { return p }
func (p *fakeProvider) Ledger() storage.LedgerStore    { return p }
func (p *fakeProvider) WebHooks() storage.WebHookStore { return p }
func (p *fakeProvider) Changes() storage.ChangeStream  { return p }

func (p *fakeProvider) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakeProvider) FindBook(_ context.Context, id string) (*storage.Book, error) {
	return &storage.Book{ID: id, Title: "Dune"}, nil
}

func (p *fakeProvider) FindBooks(context.Context) ([]*storage.Book, error) { return nil, nil }

func (p *fakeProvider) SaveBook(context.Context, *storage.Book) (string, error) { return "b1", nil }

func (p *fakeProvider) PlaceOrder(context.Context, *storage.Order) (string, error) { return "o1", nil }

func (p *fakeProvider) RecordDelivery(context.Context, *storage.Delivery) (string, error) {
	return "d1", nil
}

func (p *fakeProvider) CountOrders(_ context.Context, bookID string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orders[bookID], nil
}

func (p *fakeProvider) CountDeliveries(context.Context, string) (int64, error) { return 0, nil }

func (p *fakeProvider) RegisterWebHook(_ context.Context, hook *storage.WebHook) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
	return "h1", nil
}

func (p *fakeProvider) FindWebHooks(context.Context) ([]*storage.WebHook, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*storage.WebHook(nil), p.hooks...), nil
}

func (p *fakeProvider) Watch(ctx context.Context, collection string) (<-chan storage.ChangeEvent, error) {
	if p.watchErr != nil {
		return nil, p.watchErr
	}
	ch := make(chan storage.ChangeEvent)
	p.mu.Lock()
	p.streams[collection] = ch
	p.mu.Unlock()
	p.watched <- collection
	return ch, nil
}

func (p *fakeProvider) stream(collection string) chan storage.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streams[collection]
}

func (p *fakeProvider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://books.test"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.GRPC.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false
	cfg.Cache.Enabled = false
	cfg.PubSub.Enabled = false
	cfg.Notify.Enabled = true
	cfg.Notify.HTTPTimeout = time.Second
	return cfg
}

func withProvider(t *testing.T, p storage.Provider, err error) {
	t.Helper()
	orig := newStorageProvider
	newStorageProvider = func(context.Context, storageconfig.Config) (storage.Provider, error) {
		return p, err
	}
	t.Cleanup(func() { newStorageProvider = orig })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func waitWatched(t *testing.T, p *fakeProvider, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.watched:
		case <-time.After(2 * time.Second):
			t.Fatal("collections were not watched")
		}
	}
}

func TestManager_NotifiesSubscribersOnOrderInsert(t *testing.T) {
	received := make(chan notify.Payload, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p notify.Payload
		if json.Unmarshal(body, &p) == nil {
			received <- p
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	p := newFakeProvider()
	p.hooks = []*storage.WebHook{{URL: hook.URL}}
	withProvider(t, p, nil)

	mgr := NewManager(testConfig(), discardLogger())
	require.NoError(t, mgr.Init(context.Background()))
	require.NoError(t, mgr.Start(context.Background()))
	waitWatched(t, p, 2)

	p.stream("orders") <- storage.ChangeEvent{
		OperationType: storage.OperationInsert,
		DocumentID:    "o1",
		FullDocument:  &storage.LineItems{BookIDs: []string{"A"}},
	}

	select {
	case got := <-received:
		assert.Equal(t, notify.Payload{
			Type: notify.EventOutOfStock,
			Book: notify.BookRef{ID: "A", URL: "http://books.test/books/A"},
		}, got)
	case <-time.After(3 * time.Second):
		t.Fatal("webhook was not called")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	mgr.Shutdown(ctx)
	assert.True(t, p.isClosed())
}

func TestManager_SkipsBooksStillInStock(t *testing.T) {
	called := make(chan struct{}, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
	}))
	defer hook.Close()

	p := newFakeProvider()
	p.hooks = []*storage.WebHook{{URL: hook.URL}}
	p.orders["A"] = 2
	withProvider(t, p, nil)

	mgr := NewManager(testConfig(), discardLogger())
	require.NoError(t, mgr.Init(context.Background()))
	require.NoError(t, mgr.Start(context.Background()))
	waitWatched(t, p, 2)

	p.stream("deliveries") <- storage.ChangeEvent{
		OperationType: storage.OperationInsert,
		FullDocument:  &storage.LineItems{BookIDs: []string{"A"}},
	}

	select {
	case <-called:
		t.Fatal("webhook called for a book still in stock")
	case <-time.After(200 * time.Millisecond):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	mgr.Shutdown(ctx)
}

func TestManager_RoutesRegistered(t *testing.T) {
	p := newFakeProvider()
	withProvider(t, p, nil)

	cfg := testConfig()
	cfg.Notify.Enabled = false
	mgr := NewManager(cfg, discardLogger())
	require.NoError(t, mgr.Init(context.Background()))
	assert.Nil(t, mgr.notifier)

	rec := httptest.NewRecorder()
	mgr.Server().HTTPMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/A", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Dune"`)

	rec = httptest.NewRecorder()
	mgr.Server().HTTPMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mgr.Shutdown(context.Background())
	assert.True(t, p.isClosed())
}

func TestManager_InitStorageError(t *testing.T) {
	withProvider(t, nil, errors.New("no route to host"))

	mgr := NewManager(testConfig(), discardLogger())
	err := mgr.Init(context.Background())
	assert.ErrorContains(t, err, "failed to connect to storage: no route to host")

	mgr.Shutdown(context.Background())
}

func TestManager_StartBeforeInit(t *testing.T) {
	mgr := NewManager(testConfig(), nil)
	assert.EqualError(t, mgr.Start(context.Background()), "manager not initialized")
}

func TestManager_CacheUnavailableFallsBack(t *testing.T) {
	p := newFakeProvider()
	withProvider(t, p, nil)

	orig := newRedisCache
	newRedisCache = func(context.Context, cache.Config) (cache.Backend, func() error, error) {
		return nil, nil, errors.New("connection refused")
	}
	t.Cleanup(func() { newRedisCache = orig })

	cfg := testConfig()
	cfg.Cache.Enabled = true
	mgr := NewManager(cfg, discardLogger())
	require.NoError(t, mgr.Init(context.Background()))
	assert.Nil(t, mgr.closeCache)

	mgr.Shutdown(context.Background())
}

func TestManager_PublisherError(t *testing.T) {
	withProvider(t, newFakeProvider(), nil)

	orig := connectNATS
	connectNATS = func(context.Context, pubsub.Config, func(string, error, time.Duration)) (pubsub.Publisher, error) {
		return nil, errors.New("nats down")
	}
	t.Cleanup(func() { connectNATS = orig })

	cfg := testConfig()
	cfg.PubSub.Enabled = true
	mgr := NewManager(cfg, discardLogger())
	assert.ErrorContains(t, mgr.Init(context.Background()), "failed to connect publisher: nats down")

	mgr.Shutdown(context.Background())
}

func TestManager_WatchErrorMarksNotifierDown(t *testing.T) {
	p := newFakeProvider()
	p.watchErr = errors.New("not a replica set")
	withProvider(t, p, nil)

	mgr := NewManager(testConfig(), discardLogger())
	require.NoError(t, mgr.Init(context.Background()))
	require.NoError(t, mgr.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	mgr.Shutdown(ctx)
	assert.True(t, p.isClosed())
}
