// Package pubsub provides the event bus abstraction used to broadcast
// out-of-stock events next to webhook delivery.
package pubsub

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"
)

// Publisher broadcasts availability events.
type Publisher interface {
	// PublishOutOfStock announces that a book just went out of stock. The
	// payload is the JSON body also POSTed to webhooks.
	PublishOutOfStock(ctx context.Context, bookID string, payload []byte) error

	Close() error
}

// OutOfStockSubject is the subject token under which out-of-stock events are
// published, followed by the book id.
const OutOfStockSubject = "out_of_stock"

// StorageType defines the storage backend for streams.
type StorageType int

const (
	// MemoryStorage stores data in memory (default).
	MemoryStorage StorageType = iota
	// FileStorage stores data on disk.
	FileStorage
)

// PublisherOptions configures publisher behavior.
type PublisherOptions struct {
	// StreamName is the name of the stream to publish to.
	StreamName string

	// SubjectPrefix is prepended to all subjects.
	SubjectPrefix string

	// RetryAttempts is the number of retry attempts for publishing.
	// 0 means no retry (default).
	RetryAttempts int

	Storage StorageType

	// OnPublish is called after each publish attempt (for metrics).
	OnPublish func(subject string, err error, latency time.Duration)
}

type Config struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	StreamName    string `yaml:"stream_name"`
	RetryAttempts int    `yaml:"retry_attempts"`
	FileStorage   bool   `yaml:"file_storage"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		URL:        "nats://localhost:4222",
		StreamName: "BOOKSLAND",
	}
}

func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.URL == "" {
		c.URL = defaults.URL
	}
	if c.StreamName == "" {
		c.StreamName = defaults.StreamName
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PUBSUB_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.URL = v
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return errors.New("pubsub.url is required when pubsub is enabled")
	}
	if c.RetryAttempts < 0 {
		return errors.New("pubsub.retry_attempts must not be negative")
	}
	return nil
}

// Options derives publisher options from the config. Subjects are published
// under the stream name.
func (c Config) Options() PublisherOptions {
	opts := PublisherOptions{
		StreamName:    c.StreamName,
		SubjectPrefix: c.StreamName,
		RetryAttempts: c.RetryAttempts,
	}
	if c.FileStorage {
		opts.Storage = FileStorage
	}
	return opts
}

type noopPublisher struct{}

// Noop returns a Publisher that discards every message.
func Noop() Publisher { return noopPublisher{} }

func (noopPublisher) PublishOutOfStock(context.Context, string, []byte) error { return nil }
func (noopPublisher) Close() error { return nil }
