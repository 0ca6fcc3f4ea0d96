package notify

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const (
	DefaultQueueSize   = 64
	DefaultHTTPTimeout = 5 * time.Second
)

type Config struct {
	Enabled bool `yaml:"enabled"`
	// QueueSize bounds the events buffered per watched collection.
	QueueSize   int           `yaml:"queue_size"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// MaxConcurrency caps in-flight POSTs per cycle. 0 means unbounded.
	MaxConcurrency int `yaml:"max_concurrency"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		QueueSize:   DefaultQueueSize,
		HTTPTimeout: DefaultHTTPTimeout,
	}
}

func (c *Config) ApplyDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NOTIFY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv("NOTIFY_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueSize = n
		}
	}
	if v := os.Getenv("NOTIFY_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTPTimeout = d
		}
	}
	if v := os.Getenv("NOTIFY_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrency = n
		}
	}
}

func (c *Config) Validate() error {
	if c.QueueSize < 1 {
		return errors.New("notify.queue_size must be positive")
	}
	if c.HTTPTimeout < 0 {
		return errors.New("notify.http_timeout must not be negative")
	}
	if c.MaxConcurrency < 0 {
		return errors.New("notify.max_concurrency must not be negative")
	}
	return nil
}
