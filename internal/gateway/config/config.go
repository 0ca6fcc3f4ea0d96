package config

import (
	"errors"
	"os"
	"time"
)

const (
	DefaultMaxBodySize    = 1 << 20 // 1MB
	DefaultRequestTimeout = 30 * time.Second
)

// GatewayConfig bounds the REST handlers.
type GatewayConfig struct {
	MaxBodySize    int64         `yaml:"max_body_size"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		MaxBodySize:    DefaultMaxBodySize,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (g *GatewayConfig) ApplyDefaults() {
	if g.MaxBodySize == 0 {
		g.MaxBodySize = DefaultMaxBodySize
	}
	if g.RequestTimeout == 0 {
		g.RequestTimeout = DefaultRequestTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (g *GatewayConfig) ApplyEnvOverrides() {
	if val := os.Getenv("GATEWAY_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			g.RequestTimeout = d
		}
	}
}

// Validate returns an error if the configuration is invalid.
func (g *GatewayConfig) Validate() error {
	if g.MaxBodySize < 0 {
		return errors.New("gateway.max_body_size must not be negative")
	}
	if g.RequestTimeout < 0 {
		return errors.New("gateway.request_timeout must not be negative")
	}
	return nil
}
