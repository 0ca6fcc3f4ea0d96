package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/stretchr/testify/mock"

	gwconfig "github.com/booksland/booksland/internal/gateway/config"
	"github.com/booksland/booksland/internal/storage"
)

type MockBookStore struct {
	mock.Mock
}

func (m *MockBookStore) FindBook(ctx context.Context, id string) (*storage.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Book), args.Error(1)
}

func (m *MockBookStore) FindBooks(ctx context.Context) ([]*storage.Book, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Book), args.Error(1)
}

func (m *MockBookStore) SaveBook(ctx context.Context, book *storage.Book) (string, error) {
	args := m.Called(ctx, book)
	return args.String(0), args.Error(1)
}

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) PlaceOrder(ctx context.Context, order *storage.Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerStore) RecordDelivery(ctx context.Context, delivery *storage.Delivery) (string, error) {
	args := m.Called(ctx, delivery)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerStore) CountOrders(ctx context.Context, bookID string) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerStore) CountDeliveries(ctx context.Context, bookID string) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

type MockWebHookStore struct {
	mock.Mock
}

func (m *MockWebHookStore) RegisterWebHook(ctx context.Context, hook *storage.WebHook) (string, error) {
	args := m.Called(ctx, hook)
	return args.String(0), args.Error(1)
}

func (m *MockWebHookStore) FindWebHooks(ctx context.Context) ([]*storage.WebHook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.WebHook), args.Error(1)
}

type fixture struct {
	books  *MockBookStore
	ledger *MockLedgerStore
	hooks  *MockWebHookStore
	mux    *http.ServeMux
}

func newFixture() *fixture {
	f := &fixture{
		books:  new(MockBookStore),
		ledger: new(MockLedgerStore),
		hooks:  new(MockWebHookStore),
		mux:    http.NewServeMux(),
	}
	h := NewHandler(f.books, f.ledger, f.hooks, "http://localhost:3001/", gwconfig.DefaultGatewayConfig(), nil)
	h.RegisterRoutes(f.mux)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}
