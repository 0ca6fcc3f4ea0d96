package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/booksland/booksland/internal/storage"
	"github.com/booksland/booksland/pkg/model"
	"golang.org/x/sync/semaphore"
)

// DispatcherOptions configures outbound delivery.
type DispatcherOptions struct {
	// BaseURL prefixes the book link embedded in every payload.
	BaseURL string
	// Timeout bounds each POST. 0 disables the per-call timeout.
	Timeout time.Duration
	// MaxConcurrency caps in-flight POSTs. 0 means unbounded.
	MaxConcurrency int
	Client         *http.Client
	Metrics        Metrics
}

// Dispatcher fans out-of-stock messages out to subscribers.
type Dispatcher struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	sem     *semaphore.Weighted
	metrics Metrics
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	d := &Dispatcher{
		client:  client,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		metrics: metrics,
	}
	if opts.MaxConcurrency > 0 {
		d.sem = semaphore.NewWeighted(int64(opts.MaxConcurrency))
	}
	return d
}

// BookURL returns the public link of a book.
func (d *Dispatcher) BookURL(bookID string) string {
	return d.baseURL + "/books/" + bookID
}

// BuildMessages returns one message per (book, hook) pair, grouped by book.
func (d *Dispatcher) BuildMessages(bookIDs []string, hooks []*storage.WebHook) []OutboundMessage {
	msgs := make([]OutboundMessage, 0, len(bookIDs)*len(hooks))
	for _, id := range bookIDs {
		payload := Payload{
			Type: EventOutOfStock,
			Book: BookRef{ID: id, URL: d.BookURL(id)},
		}
		for _, hook := range hooks {
			msgs = append(msgs, OutboundMessage{URL: hook.URL, Payload: payload})
		}
	}
	return msgs
}

// Dispatch POSTs all messages concurrently and returns one outcome per
// message, in message order. A failed POST never stops the others.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []OutboundMessage) []DeliveryOutcome {
	outcomes := make([]DeliveryOutcome, len(msgs))

	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = d.deliver(ctx, msg)
		}()
	}
	wg.Wait()
	return outcomes
}

func (d *Dispatcher) deliver(ctx context.Context, msg OutboundMessage) DeliveryOutcome {
	outcome := DeliveryOutcome{URL: msg.URL, BookID: msg.Payload.Book.ID}
	fetchErr := func(err error) DeliveryOutcome {
		outcome.Err = model.GenericError(fmt.Sprintf("could not fetch URL %s", msg.URL), err)
		d.metrics.IncDelivery(0)
		return outcome
	}

	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return fetchErr(err)
		}
		defer d.sem.Release(1)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	body, err := json.Marshal(msg.Payload)
	if err != nil {
		return fetchErr(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.URL, bytes.NewReader(body))
	if err != nil {
		return fetchErr(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Booksland-Notifier/1.0")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return fetchErr(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	d.metrics.IncDelivery(resp.StatusCode)
	d.metrics.ObserveDeliveryLatency(time.Since(start))
	outcome.Status = resp.StatusCode
	return outcome
}
