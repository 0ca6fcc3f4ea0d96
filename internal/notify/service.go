package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/booksland/booksland/internal/storage"
)

// Source is one watched ledger collection.
type Source struct {
	// Label names the source in logs, e.g. "Order".
	Label      string
	Collection string
}

// Handler consumes change events.
type Handler interface {
	Handle(ctx context.Context, evt storage.ChangeEvent)
}

// Service watches every source and feeds its events, in arrival order, to
// the handler. Events of one source are handled one at a time.
type Service struct {
	changes   storage.ChangeStream
	sources   []Source
	handler   Handler
	queueSize int
	logger    *slog.Logger
}

func NewService(changes storage.ChangeStream, sources []Source, handler Handler, queueSize int, logger *slog.Logger) *Service {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		changes:   changes,
		sources:   sources,
		handler:   handler,
		queueSize: queueSize,
		logger:    logger.With("component", "notify"),
	}
}

// Start opens every change stream and blocks until ctx is done or all
// streams have ended. It returns an error only if a stream cannot be opened.
func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	streams := make([]<-chan storage.ChangeEvent, len(s.sources))
	for i, src := range s.sources {
		ch, err := s.changes.Watch(ctx, src.Collection)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", src.Collection, err)
		}
		streams[i] = ch
	}

	var wg sync.WaitGroup
	for i, src := range s.sources {
		queue := make(chan storage.ChangeEvent, s.queueSize)

		wg.Add(2)
		go func() {
			defer wg.Done()
			defer close(queue)
			s.forward(ctx, src, streams[i], queue)
		}()
		go func() {
			defer wg.Done()
			for evt := range queue {
				// Drop what is still queued once shutdown has begun.
				if ctx.Err() != nil {
					continue
				}
				s.handler.Handle(ctx, evt)
			}
		}()
		s.logger.Info("Watching collection", "source", src.Label, "collection", src.Collection)
	}

	wg.Wait()
	return nil
}

// forward copies stream events into the bounded queue, blocking the stream
// while the queue is full. Stream errors are logged and never queued.
func (s *Service) forward(ctx context.Context, src Source, stream <-chan storage.ChangeEvent, queue chan<- storage.ChangeEvent) {
	var cause error
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-stream:
			if !ok {
				if cause != nil {
					s.logger.Warn("Change stream ended", "source", src.Label, "error", cause)
				} else {
					s.logger.Warn("Change stream ended", "source", src.Label)
				}
				return
			}
			if evt.Err != nil {
				if errors.Is(evt.Err, storage.ErrUndecodableChange) {
					s.logger.Warn("Skipping change event", "source", src.Label, "error", evt.Err)
				} else {
					cause = evt.Err
				}
				continue
			}
			if src.Label != "" {
				evt.Collection = src.Label
			}
			select {
			case queue <- evt:
			case <-ctx.Done():
				return
			}
		}
	}
}
