package server

import (
	"errors"
	"fmt"
	"time"
)

const DefaultPort = 3001

// Config holds the configuration for the unified server module.
type Config struct {
	Host string `yaml:"host"`

	// HTTP Configuration
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	GRPC GRPCConfig `yaml:"grpc"`

	// Lifecycle Configuration
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GRPCConfig configures the health endpoint listener.
type GRPCConfig struct {
	Enabled          bool `yaml:"enabled"`
	Port             int  `yaml:"port"`
	MaxConcurrent    uint `yaml:"max_concurrent"`
	EnableReflection bool `yaml:"enable_reflection"`
}

// DefaultConfig returns safe defaults for development.
func DefaultConfig() Config {
	return Config{
		Port:         DefaultPort,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
		GRPC: GRPCConfig{
			Port:             9090,
			MaxConcurrent:    100,
			EnableReflection: true,
		},
		ShutdownTimeout: 5 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Port == 0 {
		c.Port = defaults.Port
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaults.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaults.IdleTimeout
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = defaults.GRPC.Port
	}
	if c.GRPC.MaxConcurrent == 0 {
		c.GRPC.MaxConcurrent = defaults.GRPC.MaxConcurrent
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// The application port is set through the top-level applicationPort key.
func (c *Config) ApplyEnvOverrides() {}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("property 'applicationPort': only positive integers are allowed")
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 0 || c.GRPC.Port > 65535) {
		return errors.New("server.grpc.port is out of range")
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	return nil
}
