package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/booksland/booksland/internal/cache"
	gateway "github.com/booksland/booksland/internal/gateway/config"
	"github.com/booksland/booksland/internal/notify"
	"github.com/booksland/booksland/internal/observability"
	"github.com/booksland/booksland/internal/pubsub"
	"github.com/booksland/booksland/internal/server"
	storage "github.com/booksland/booksland/internal/storage/config"
	"gopkg.in/yaml.v3"
)

const DefaultBaseURL = "http://localhost:3001"

// Config holds the application configuration
type Config struct {
	// BaseURL prefixes the book URLs handed out in Location headers and
	// webhook payloads.
	BaseURL string `yaml:"base_url"`

	Server  server.Config               `yaml:"server"`
	Gateway gateway.GatewayConfig       `yaml:"gateway"`
	Metrics observability.MetricsConfig `yaml:"metrics"`
	Tracing observability.TracingConfig `yaml:"tracing"`

	Storage storage.Config `yaml:"storage"`
	Cache   cache.Config   `yaml:"cache"`
	PubSub  pubsub.Config  `yaml:"pubsub"`
	Notify  notify.Config  `yaml:"notify"`

	Logging LoggingConfig `yaml:"logging"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Server:  server.DefaultConfig(),
		Gateway: gateway.DefaultGatewayConfig(),
		Metrics: observability.DefaultMetricsConfig(),
		Tracing: observability.DefaultTracingConfig(),
		Storage: storage.DefaultConfig(),
		Cache:   cache.DefaultConfig(),
		PubSub:  pubsub.DefaultConfig(),
		Notify:  notify.DefaultConfig(),
		Logging: DefaultLoggingConfig(),
	}
}

// Load builds the configuration.
// Order: defaults -> config.yml -> config.local.yml -> original keys from env
// and args -> ApplyDefaults -> ApplyEnvOverrides -> ResolvePaths -> Validate
func Load(configDir string, args []string) (*Config, error) {
	cfg := DefaultConfig()

	for _, name := range []string{"config.yml", "config.local.yml"} {
		if err := loadFile(filepath.Join(configDir, name), cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyKeys(args, os.LookupEnv)

	if cfg.BaseURL == "" {
		return nil, errors.New("property 'baseUrl': must be a non empty string")
	}

	if err := ApplyServiceConfigs(configDir,
		&cfg.Server,
		&cfg.Gateway,
		&cfg.Metrics,
		&cfg.Tracing,
		&cfg.Storage,
		&cfg.Cache,
		&cfg.PubSub,
		&cfg.Notify,
		&cfg.Logging,
	); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		slog.Warn("Error reading config file", "file", filename, "error", err)
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return nil
}

// key is one of the original process settings, set by "--<name> <value>" or
// by the UPPER_SNAKE env var of the same name. A value that fails to parse
// falls back to the key's default.
type key struct {
	name  string
	apply func(c *Config, raw string)
}

var keys = []key{
	{"dbConnectionString", func(c *Config, raw string) {
		c.Storage.ConnectionString = nonEmpty(raw, storage.DefaultConnectionString)
	}},
	{"applicationPort", func(c *Config, raw string) {
		c.Server.Port = port(raw, server.DefaultPort)
	}},
	{"metricsPort", func(c *Config, raw string) {
		c.Metrics.Port = port(raw, observability.DefaultMetricsPort)
	}},
	{"otlpExporterHost", func(c *Config, raw string) {
		c.Tracing.Host = nonEmpty(raw, observability.DefaultOTLPHost)
	}},
	{"otlpExporterPort", func(c *Config, raw string) {
		c.Tracing.Port = port(raw, observability.DefaultOTLPPort)
	}},
	{"baseUrl", func(c *Config, raw string) {
		c.BaseURL = nonEmpty(raw, DefaultBaseURL)
	}},
}

// applyKeys applies each original key found in args or, failing that, in
// the environment. Keys found in neither leave cfg untouched.
func (c *Config) applyKeys(args []string, lookupEnv func(string) (string, bool)) {
	for _, k := range keys {
		raw, ok := findInArgs(args, k.name)
		if !ok {
			raw, ok = lookupEnv(envName(k.name))
		}
		if ok {
			k.apply(c, raw)
		}
	}
}

func findInArgs(args []string, name string) (string, bool) {
	flag := "--" + name
	for i, a := range args {
		if a == flag {
			if i+1 < len(args) {
				return args[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// envName turns camelCase into UPPER_SNAKE: dbConnectionString becomes
// DB_CONNECTION_STRING.
func envName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && (unicode.IsUpper(r) || (unicode.IsDigit(r) && !unicode.IsDigit(rune(name[i-1])))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func nonEmpty(raw, def string) string {
	if raw == "" {
		return def
	}
	return raw
}

func port(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
