package notify

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/booksland/booksland/internal/storage"
	"github.com/booksland/booksland/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	ledger    *MockLedger
	directory *MockDirectory
	transport *recordingTransport
	engine    *Engine
}

func newEngineFixture(opts ...EngineOption) *engineFixture {
	f := &engineFixture{
		ledger:    new(MockLedger),
		directory: new(MockDirectory),
		transport: newRecordingTransport(),
	}
	dispatcher := NewDispatcher(DispatcherOptions{
		BaseURL: "http://books.test",
		Client:  &http.Client{Transport: f.transport},
	})
	f.engine = NewEngine(f.directory, NewEvaluator(NewLedgerReader(f.ledger)), dispatcher, opts...)
	return f
}

func TestEngine_OnlyNotifiableBookIsPosted(t *testing.T) {
	f := newEngineFixture()
	f.directory.On("ListWebHooks", mock.Anything).Return(hooks("http://sub.example/hook"), nil)
	f.ledger.stock("A", 3, 3)
	f.ledger.stock("B", 5, 2)

	report, err := f.engine.Run(context.Background(), []string{"A", "B"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, report.Evaluated)
	assert.Equal(t, []string{"A"}, report.Notifiable)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, DeliveryOutcome{Status: http.StatusOK, URL: "http://sub.example/hook", BookID: "A"}, report.Outcomes[0])

	reqs := f.transport.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "http://sub.example/hook", reqs[0].URL)
	assert.JSONEq(t, `{"type":"out_of_stock","book":{"id":"A","url":"http://books.test/books/A"}}`, reqs[0].Body)
}

func TestEngine_DeliveryCountFailureSendsNothing(t *testing.T) {
	f := newEngineFixture()
	f.directory.On("ListWebHooks", mock.Anything).Return(hooks("http://sub.example/hook"), nil)
	f.ledger.On("CountDeliveries", mock.Anything, "A").Return(int64(0), errors.New("server selection timeout"))
	f.ledger.On("CountOrders", mock.Anything, "A").Return(int64(0), nil).Maybe()

	_, err := f.engine.Run(context.Background(), []string{"A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrGeneric)
	assert.Empty(t, f.transport.recorded())
}

func TestEngine_DirectoryFailureSendsNothing(t *testing.T) {
	f := newEngineFixture()
	f.directory.On("ListWebHooks", mock.Anything).Return(nil, model.GenericError("could not retrieve any webhook", nil))

	_, err := f.engine.Run(context.Background(), []string{"A"})
	assert.ErrorIs(t, err, model.ErrGeneric)
	assert.Empty(t, f.transport.recorded())
	f.ledger.AssertNotCalled(t, "CountDeliveries", mock.Anything, mock.Anything)
}

func TestEngine_EmptyCycle(t *testing.T) {
	f := newEngineFixture()
	f.directory.On("ListWebHooks", mock.Anything).Return(hooks("http://sub.example/hook"), nil)

	report, err := f.engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, f.transport.recorded())
}

func TestEngine_PublishesOutOfStockEvents(t *testing.T) {
	pub := new(MockPublisher)
	f := newEngineFixture(WithPublisher(pub))
	f.directory.On("ListWebHooks", mock.Anything).Return([]*storage.WebHook{}, nil)
	f.ledger.stock("A", 1, 1)
	f.ledger.stock("B", 0, 0)

	pub.On("PublishOutOfStock", mock.Anything, "A",
		[]byte(`{"type":"out_of_stock","book":{"id":"A","url":"http://books.test/books/A"}}`)).Return(nil).Once()
	pub.On("PublishOutOfStock", mock.Anything, "B", mock.Anything).Return(errors.New("nats: timeout")).Once()

	report, err := f.engine.Run(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, report.Notifiable)
	pub.AssertExpectations(t)
}

type countingMetrics struct {
	NoopMetrics
	cycles, failedCycles int
}

func (m *countingMetrics) IncCycle(failed bool) {
	m.cycles++
	if failed {
		m.failedCycles++
	}
}

func TestEngine_Metrics(t *testing.T) {
	metrics := &countingMetrics{}
	f := newEngineFixture(WithMetrics(metrics))
	f.directory.On("ListWebHooks", mock.Anything).Return(hooks("http://x.example/1"), nil).Once()
	f.directory.On("ListWebHooks", mock.Anything).Return(nil, errors.New("down")).Once()
	f.ledger.stock("A", 0, 0)

	_, err := f.engine.Run(context.Background(), []string{"A"})
	require.NoError(t, err)
	_, err = f.engine.Run(context.Background(), []string{"A"})
	require.Error(t, err)

	assert.Equal(t, 2, metrics.cycles)
	assert.Equal(t, 1, metrics.failedCycles)
}
