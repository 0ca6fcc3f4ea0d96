package observability

import (
	"errors"
	"os"
	"strconv"
)

const (
	DefaultMetricsPort  = 3002
	DefaultOTLPHost     = "localhost"
	DefaultOTLPPort     = 4318
	DefaultTracesPath   = "/v1/traces"
	DefaultServiceName  = "booksland"
	DefaultMetricsRoute = "/metrics"
)

// TracingConfig configures the OTLP/HTTP trace exporter.
type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Host           string  `yaml:"host"`
	Port           int     `yaml:"port"`
	URLPath        string  `yaml:"url_path"`
	Insecure       bool    `yaml:"insecure"`
	ServiceName    string  `yaml:"service_name"`
	ServiceVersion string  `yaml:"service_version"`
	SampleRatio    float64 `yaml:"sample_ratio"`
}

func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     true,
		Host:        DefaultOTLPHost,
		Port:        DefaultOTLPPort,
		URLPath:     DefaultTracesPath,
		Insecure:    true,
		ServiceName: DefaultServiceName,
		SampleRatio: 1,
	}
}

func (c *TracingConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = DefaultOTLPHost
	}
	if c.Port == 0 {
		c.Port = DefaultOTLPPort
	}
	if c.URLPath == "" {
		c.URLPath = DefaultTracesPath
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.SampleRatio == 0 {
		c.SampleRatio = 1
	}
}

func (c *TracingConfig) ApplyEnvOverrides() {
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
}

func (c *TracingConfig) Validate() error {
	if c.Host == "" {
		return errors.New("property 'otlpExporterHost': must be a non empty string")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("property 'otlpExporterPort': only positive integers are allowed")
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.New("tracing sample_ratio must be between 0 and 1")
	}
	return nil
}

// Endpoint is the exporter's host:port.
func (c TracingConfig) Endpoint() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: true,
		Port:    DefaultMetricsPort,
		Path:    DefaultMetricsRoute,
	}
}

func (c *MetricsConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultMetricsPort
	}
	if c.Path == "" {
		c.Path = DefaultMetricsRoute
	}
}

func (c *MetricsConfig) ApplyEnvOverrides() {
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
}

func (c *MetricsConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("property 'metricsPort': only positive integers are allowed")
	}
	return nil
}
