package notify

import "time"

// Metrics defines the interface for notifier telemetry.
type Metrics interface {
	IncCycle(failed bool)
	ObserveCycleLatency(duration time.Duration)
	IncEvaluated(notifiable bool)

	// IncDelivery records one POST attempt. status is 0 when no response
	// was received.
	IncDelivery(status int)
	ObserveDeliveryLatency(duration time.Duration)

	IncPublish(failed bool)
}

// NoopMetrics is a no-op implementation of Metrics.
type NoopMetrics struct{}

func (NoopMetrics) IncCycle(bool) {}
func (NoopMetrics) ObserveCycleLatency(time.Duration) {}
func (NoopMetrics) IncEvaluated(bool) {}
func (NoopMetrics) IncDelivery(int) {}
func (NoopMetrics) ObserveDeliveryLatency(time.Duration) {}
func (NoopMetrics) IncPublish(bool) {}
