package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/booksland/booksland/internal/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/booksland/booksland/internal/notify"

// Engine runs notification cycles: list subscribers, evaluate the affected
// books, dispatch, then broadcast on the event bus.
type Engine struct {
	directory  SubscriberDirectory
	evaluator  *Evaluator
	dispatcher *Dispatcher
	publisher  pubsub.Publisher
	metrics    Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// EngineOption configures optional Engine collaborators.
type EngineOption func(*Engine)

func WithPublisher(p pubsub.Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

func WithMetrics(m Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(directory SubscriberDirectory, evaluator *Evaluator, dispatcher *Dispatcher, opts ...EngineOption) *Engine {
	e := &Engine{
		directory:  directory,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		publisher:  pubsub.Noop(),
		metrics:    NoopMetrics{},
		tracer:     otel.Tracer(tracerName),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "notify")
	return e
}

// Run performs one cycle. A failure listing hooks or counting stock aborts
// the cycle before any POST is sent.
func (e *Engine) Run(ctx context.Context, bookIDs []string) (report Report, err error) {
	ctx, span := e.tracer.Start(ctx, "notify.cycle", trace.WithAttributes(
		attribute.StringSlice("booksland.book_ids", bookIDs),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		e.metrics.IncCycle(err != nil)
		e.metrics.ObserveCycleLatency(time.Since(start))
		span.End()
	}()

	hooks, err := e.directory.ListWebHooks(ctx)
	if err != nil {
		return Report{}, err
	}

	ids := unique(bookIDs)
	notifiable, err := e.evaluator.BooksToNotify(ctx, ids)
	if err != nil {
		return Report{}, err
	}
	e.recordEvaluated(len(ids), len(notifiable))

	outcomes := e.dispatcher.Dispatch(ctx, e.dispatcher.BuildMessages(notifiable, hooks))
	e.broadcast(ctx, notifiable)

	span.SetAttributes(
		attribute.Int("booksland.notifiable", len(notifiable)),
		attribute.Int("booksland.deliveries", len(outcomes)),
	)
	return Report{Evaluated: ids, Notifiable: notifiable, Outcomes: outcomes}, nil
}

func (e *Engine) recordEvaluated(total, notifiable int) {
	for i := 0; i < total; i++ {
		e.metrics.IncEvaluated(i < notifiable)
	}
}

// broadcast publishes one event per notifiable book. Bus failures are logged
// and never fail the cycle.
func (e *Engine) broadcast(ctx context.Context, bookIDs []string) {
	for _, id := range bookIDs {
		data, err := json.Marshal(Payload{
			Type: EventOutOfStock,
			Book: BookRef{ID: id, URL: e.dispatcher.BookURL(id)},
		})
		if err != nil {
			continue
		}
		err = e.publisher.PublishOutOfStock(ctx, id, data)
		e.metrics.IncPublish(err != nil)
		if err != nil {
			e.logger.Warn("Failed to publish out-of-stock event", "book_id", id, "error", err)
		}
	}
}
