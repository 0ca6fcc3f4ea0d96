package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/booksland/booksland/internal/storage"
	"github.com/stretchr/testify/mock"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) CountOrders(ctx context.Context, bookID string) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) CountDeliveries(ctx context.Context, bookID string) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

// stock registers both counts of a book on the mock.
func (m *MockLedger) stock(bookID string, deliveries, orders int64) {
	m.On("CountDeliveries", mock.Anything, bookID).Return(deliveries, nil)
	m.On("CountOrders", mock.Anything, bookID).Return(orders, nil)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ListWebHooks(ctx context.Context) ([]*storage.WebHook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.WebHook), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOutOfStock(ctx context.Context, bookID string, payload []byte) error {
	args := m.Called(ctx, bookID, payload)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

func hooks(urls ...string) []*storage.WebHook {
	out := make([]*storage.WebHook, 0, len(urls))
	for _, u := range urls {
		out = append(out, &storage.WebHook{URL: u})
	}
	return out
}

type recordedRequest struct {
	URL         string
	ContentType string
	Body        string
}

// recordingTransport answers every request in-process and remembers it.
// Requests to hosts listed in refuse fail like a refused connection.
type recordingTransport struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	refuse   map[string]bool
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{status: http.StatusOK, refuse: map[string]bool{}}
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	t.mu.Lock()
	t.requests = append(t.requests, recordedRequest{
		URL:         req.URL.String(),
		ContentType: req.Header.Get("Content-Type"),
		Body:        string(body),
	})
	refused := t.refuse[req.URL.Host]
	status := t.status
	t.mu.Unlock()

	if refused {
		return nil, errors.New("connect: connection refused")
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (t *recordingTransport) recorded() []recordedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]recordedRequest(nil), t.requests...)
}
