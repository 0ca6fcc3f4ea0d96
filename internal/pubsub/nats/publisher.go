// Package nats implements pubsub.Publisher on NATS JetStream.
package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/booksland/booksland/internal/pubsub"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrInvalidBookID is returned for book ids that cannot form a subject token.
var ErrInvalidBookID = errors.New("book id is not a valid subject token")

// JetStream is the subset of jetstream.JetStream the publisher calls.
type JetStream interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// availabilityPublisher publishes out-of-stock events as
// <prefix>.out_of_stock.<bookId>.
type availabilityPublisher struct {
	js   JetStream
	opts pubsub.PublisherOptions
	base string
}

// NewPublisher ensures the availability stream exists when a stream name is
// set and returns a publisher bound to it.
func NewPublisher(ctx context.Context, js JetStream, opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if js == nil {
		return nil, errors.New("jetstream cannot be nil")
	}

	p := &availabilityPublisher{js: js, opts: opts, base: join(opts.SubjectPrefix, pubsub.OutOfStockSubject)}

	if opts.StreamName != "" {
		if _, err := js.CreateOrUpdateStream(ctx, p.streamConfig()); err != nil {
			return nil, fmt.Errorf("failed to ensure stream %s: %w", opts.StreamName, err)
		}
	}
	return p, nil
}

// streamConfig captures every out-of-stock subject, whatever the book.
func (p *availabilityPublisher) streamConfig() jetstream.StreamConfig {
	storage := jetstream.MemoryStorage
	if p.opts.Storage == pubsub.FileStorage {
		storage = jetstream.FileStorage
	}
	return jetstream.StreamConfig{
		Name:        p.opts.StreamName,
		Description: "Booksland availability events",
		Subjects:    []string{p.base + ".>"},
		Storage:     storage,
	}
}

func (p *availabilityPublisher) PublishOutOfStock(ctx context.Context, bookID string, payload []byte) error {
	subject := p.base + "." + bookID
	start := time.Now()

	err := validToken(bookID)
	if err == nil {
		_, err = p.js.Publish(ctx, subject, payload, p.publishOpts()...)
	}

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(subject, err, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("failed to publish out-of-stock event for book %q: %w", bookID, err)
	}
	return nil
}

func (p *availabilityPublisher) publishOpts() []jetstream.PublishOpt {
	var opts []jetstream.PublishOpt
	if p.opts.StreamName != "" {
		opts = append(opts, jetstream.WithExpectStream(p.opts.StreamName))
	}
	if p.opts.RetryAttempts > 0 {
		opts = append(opts, jetstream.WithRetryAttempts(p.opts.RetryAttempts))
	}
	return opts
}

func (p *availabilityPublisher) Close() error {
	return nil
}

// validToken rejects ids that would split the subject or act as a wildcard.
func validToken(id string) error {
	if id == "" {
		return ErrInvalidBookID
	}
	if strings.ContainsAny(id, ".*>") || strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return ErrInvalidBookID
	}
	return nil
}

func join(prefix, token string) string {
	if prefix == "" {
		return token
	}
	return prefix + "." + token
}
