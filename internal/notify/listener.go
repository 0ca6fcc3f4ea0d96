package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/booksland/booksland/internal/storage"
)

// Listener turns change events into notification cycles and logs their
// outcome. It never fails towards the change stream.
type Listener struct {
	runner Runner
	logger *slog.Logger
}

func NewListener(runner Runner, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{runner: runner, logger: logger.With("component", "notify")}
}

// Handle runs one cycle for the book ids carried by an insert. Any other
// event runs an empty cycle.
func (l *Listener) Handle(ctx context.Context, evt storage.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Notification cycle panicked", "collection", evt.Collection, "panic", r)
		}
	}()

	report, err := l.runner.Run(ctx, evt.BookIDs())
	if err != nil {
		l.logger.Error("Notification cycle failed",
			"collection", evt.Collection,
			"operation", evt.OperationType,
			"error", err)
		return
	}

	for _, o := range report.Outcomes {
		if o.Err != nil {
			l.logger.Warn(fmt.Sprintf("invoked URL %s for book id %s: %v", o.URL, o.BookID, o.Err),
				"collection", evt.Collection, "url", o.URL, "book_id", o.BookID)
			continue
		}
		l.logger.Info(FormatOutcome(o),
			"collection", evt.Collection, "url", o.URL, "book_id", o.BookID, "status", o.Status)
	}
}

// FormatOutcome renders a delivered POST as a single log line.
func FormatOutcome(o DeliveryOutcome) string {
	return fmt.Sprintf("invoked URL %s for book id %s: %d", o.URL, o.BookID, o.Status)
}
