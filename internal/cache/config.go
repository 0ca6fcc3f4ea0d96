package cache

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	DB      int           `yaml:"db"`
	TTL     time.Duration `yaml:"ttl"`
}

func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Addr:    "localhost:6379",
		TTL:     5 * time.Minute,
	}
}

func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Addr == "" {
		c.Addr = defaults.Addr
	}
	if c.TTL == 0 {
		c.TTL = defaults.TTL
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Addr = v
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return errors.New("cache.addr is required when cache is enabled")
	}
	if c.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	return nil
}
