package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/booksland/booksland/internal/pubsub"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamNew is a variable to allow mocking in tests.
var JetStreamNew = func(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// connPublisher closes the NATS connection with the publisher.
type connPublisher struct {
	pubsub.Publisher
	nc *nats.Conn
}

func (p *connPublisher) Close() error {
	err := p.Publisher.Close()
	p.nc.Close()
	return err
}

// Connect dials NATS and returns a JetStream publisher configured from cfg.
// onPublish, when set, observes every publish attempt.
func Connect(ctx context.Context, cfg pubsub.Config, onPublish func(subject string, err error, latency time.Duration)) (pubsub.Publisher, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("booksland"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := JetStreamNew(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	opts := cfg.Options()
	opts.OnPublish = onPublish
	pub, err := NewPublisher(ctx, js, opts)
	if err != nil {
		nc.Close()
		return nil, err
	}

	slog.Info("Connected to NATS", "url", cfg.URL, "stream", cfg.StreamName)
	return &connPublisher{Publisher: pub, nc: nc}, nil
}
