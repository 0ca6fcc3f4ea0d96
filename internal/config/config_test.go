package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyKeys_EmptyValuesReturnDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.applyKeys(nil, noEnv)

	assert.Equal(t, "mongodb://localhost:27017/booksland", cfg.Storage.ConnectionString)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 3002, cfg.Metrics.Port)
	assert.Equal(t, "localhost", cfg.Tracing.Host)
	assert.Equal(t, 4318, cfg.Tracing.Port)
	assert.Equal(t, "http://localhost:3001", cfg.BaseURL)
}

func TestApplyKeys_ArgsTakePrecedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.applyKeys(
		[]string{"--dbConnectionString", "mongodb://localhost:27017/db1"},
		envOf(map[string]string{"DB_CONNECTION_STRING": "mongodb://localhost:27017/db2"}),
	)

	assert.Equal(t, "mongodb://localhost:27017/db1", cfg.Storage.ConnectionString)
}

func TestApplyKeys_ArgsAndEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.applyKeys(
		[]string{"--dbConnectionString", "mongodb://localhost:27017/db1"},
		envOf(map[string]string{"APPLICATION_PORT": "9999"}),
	)

	assert.Equal(t, "mongodb://localhost:27017/db1", cfg.Storage.ConnectionString)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestApplyKeys_AllFromArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.applyKeys([]string{
		"--dbConnectionString", "mongodb://localhost:27017/db1",
		"--applicationPort", "9998",
		"--metricsPort", "9999",
		"--otlpExporterHost", "some.host",
		"--otlpExporterPort", "9997",
		"--baseUrl", "http://localhost",
	}, noEnv)

	assert.Equal(t, "mongodb://localhost:27017/db1", cfg.Storage.ConnectionString)
	assert.Equal(t, 9998, cfg.Server.Port)
	assert.Equal(t, 9999, cfg.Metrics.Port)
	assert.Equal(t, "some.host", cfg.Tracing.Host)
	assert.Equal(t, 9997, cfg.Tracing.Port)
	assert.Equal(t, "http://localhost", cfg.BaseURL)
}

func TestApplyKeys_AllFromEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.applyKeys(nil, envOf(map[string]string{
		"DB_CONNECTION_STRING": "mongodb://localhost:27017/db1",
		"APPLICATION_PORT":     "9998",
		"METRICS_PORT":         "9999",
		"OTLP_EXPORTER_HOST":   "some.host",
		"OTLP_EXPORTER_PORT":   "9997",
		"BASE_URL":             "http://localhost",
	}))

	assert.Equal(t, "mongodb://localhost:27017/db1", cfg.Storage.ConnectionString)
	assert.Equal(t, 9998, cfg.Server.Port)
	assert.Equal(t, 9999, cfg.Metrics.Port)
	assert.Equal(t, "some.host", cfg.Tracing.Host)
	assert.Equal(t, 9997, cfg.Tracing.Port)
	assert.Equal(t, "http://localhost", cfg.BaseURL)
}

func TestApplyKeys_NegativeIntegerFallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 8080
	cfg.applyKeys(nil, envOf(map[string]string{
		"APPLICATION_PORT":   "-9999",
		"METRICS_PORT":       "-9999",
		"OTLP_EXPORTER_PORT": "not-a-number",
	}))

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 3002, cfg.Metrics.Port)
	assert.Equal(t, 4318, cfg.Tracing.Port)
}

func TestApplyKeys_EmptyStringFallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracing.Host = "collector"
	cfg.applyKeys(nil, envOf(map[string]string{
		"DB_CONNECTION_STRING": "",
		"OTLP_EXPORTER_HOST":   "",
	}))

	assert.Equal(t, "mongodb://localhost:27017/booksland", cfg.Storage.ConnectionString)
	assert.Equal(t, "localhost", cfg.Tracing.Host)
}

func TestApplyKeys_DanglingFlagIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.applyKeys([]string{"--applicationPort"}, envOf(map[string]string{"APPLICATION_PORT": "7000"}))

	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"dbConnectionString": "DB_CONNECTION_STRING",
		"applicationPort":    "APPLICATION_PORT",
		"otlpExporterHost":   "OTLP_EXPORTER_HOST",
		"baseUrl":            "BASE_URL",
		"port2":              "PORT_2",
	}
	for in, want := range tests {
		assert.Equal(t, want, envName(in), in)
	}
}

func TestLoad_FilesThenArgs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
base_url: http://books.example
server:
  port: 4000
notify:
  queue_size: 8
  http_timeout: 2s
storage:
  connection_string: mongodb://db.example:27017/shop
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.yml"), []byte(`
notify:
  max_concurrency: 4
`), 0644))

	cfg, err := Load(dir, []string{"--applicationPort", "5000"})
	require.NoError(t, err)

	assert.Equal(t, "http://books.example", cfg.BaseURL)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Notify.QueueSize)
	assert.Equal(t, 2*time.Second, cfg.Notify.HTTPTimeout)
	assert.Equal(t, 4, cfg.Notify.MaxConcurrency)
	assert.Equal(t, "shop", cfg.Storage.DatabaseName)
	assert.Equal(t, filepath.Join(filepath.Dir(dir), "logs"), cfg.Logging.Dir)
}

func TestLoad_NoFiles(t *testing.T) {
	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "booksland", cfg.Storage.DatabaseName)
	assert.True(t, cfg.Notify.Enabled)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.PubSub.Enabled)
}

func TestLoad_InvalidYAMLPort(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("metrics:\n  port: 99999\n"), 0644))

	_, err := Load(dir, nil)
	assert.EqualError(t, err, "property 'metricsPort': only positive integers are allowed")
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("server: [oops"), 0644))

	_, err := Load(dir, nil)
	assert.Error(t, err)
}

func TestApplyServiceConfigs_StopsAtFirstError(t *testing.T) {
	bad := LoggingConfig{Level: "loud"}
	bad.Format = "text"
	bad.Dir = "logs"

	err := ApplyServiceConfigs("config", &bad)
	assert.EqualError(t, err, "invalid log level: loud (must be debug, info, warn, or error)")
}

func TestLoggingConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg LoggingConfig
		cfg.ApplyDefaults()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "info", cfg.Console.Level)
		assert.Equal(t, "text", cfg.File.Format)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("LOG_FORMAT", "json")
		cfg := DefaultLoggingConfig()
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		assert.Equal(t, "debug", cfg.Console.Level)
		assert.Equal(t, "json", cfg.File.Format)
	})

	t.Run("paths", func(t *testing.T) {
		cfg := LoggingConfig{Dir: "logs"}
		cfg.ResolvePaths("/srv/booksland/config")
		assert.Equal(t, "/srv/booksland/logs", cfg.Dir)

		cfg = LoggingConfig{Dir: "../var/log"}
		cfg.ResolvePaths("/srv/booksland/config")
		assert.Equal(t, "/srv/booksland/var/log", cfg.Dir)

		cfg = LoggingConfig{Dir: "/var/log/booksland"}
		cfg.ResolvePaths("/srv/booksland/config")
		assert.Equal(t, "/var/log/booksland", cfg.Dir)
	})

	t.Run("invalid file format", func(t *testing.T) {
		cfg := DefaultLoggingConfig()
		cfg.File = OutputConfig{Enabled: true, Format: "xml"}
		assert.EqualError(t, cfg.Validate(), "invalid file log format: xml")
	})
}
