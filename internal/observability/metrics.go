package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics is the Prometheus-backed telemetry sink for the notifier, the HTTP
// server and the event bus. Each instance owns its own registry.
type Metrics struct {
	registry *prometheus.Registry

	cycles          *prometheus.CounterVec
	cycleLatency    prometheus.Histogram
	evaluated       *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	deliveryLatency prometheus.Histogram
	published       *prometheus.CounterVec
	publishLatency  prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booksland_notify_cycles_total",
			Help: "The total number of notification cycles",
		}, []string{"result"}),

		cycleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "booksland_notify_cycle_latency_seconds",
			Help: "The latency of notification cycles",
		}),

		evaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booksland_notify_books_evaluated_total",
			Help: "The total number of books evaluated for availability",
		}, []string{"notifiable"}),

		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booksland_notify_deliveries_total",
			Help: "The total number of webhook POST attempts",
		}, []string{"status"}),

		deliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "booksland_notify_delivery_latency_seconds",
			Help: "The latency of webhook POST attempts",
		}),

		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booksland_events_published_total",
			Help: "The total number of bus events published",
		}, []string{"result"}),

		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "booksland_publish_latency_seconds",
			Help: "The latency of bus event publishing",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booksland_http_requests_total",
			Help: "The total number of HTTP requests served",
		}, []string{"method", "route", "status"}),

		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "booksland_http_request_duration_seconds",
			Help: "The latency of HTTP requests",
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cycles,
		m.cycleLatency,
		m.evaluated,
		m.deliveries,
		m.deliveryLatency,
		m.published,
		m.publishLatency,
		m.httpRequests,
		m.httpLatency,
	)
	return m
}

// Registry exposes the registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) IncCycle(failed bool) {
	m.cycles.WithLabelValues(result(failed)).Inc()
}

func (m *Metrics) ObserveCycleLatency(d time.Duration) {
	m.cycleLatency.Observe(d.Seconds())
}

func (m *Metrics) IncEvaluated(notifiable bool) {
	m.evaluated.WithLabelValues(strconv.FormatBool(notifiable)).Inc()
}

func (m *Metrics) IncDelivery(status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.deliveries.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveDeliveryLatency(d time.Duration) {
	m.deliveryLatency.Observe(d.Seconds())
}

func (m *Metrics) IncPublish(failed bool) {
	m.published.WithLabelValues(result(failed)).Inc()
}

// ObservePublish matches the pubsub OnPublish hook.
func (m *Metrics) ObservePublish(_ string, _ error, latency time.Duration) {
	m.publishLatency.Observe(latency.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(failed bool) string {
	if failed {
		return "failure"
	}
	return "success"
}
