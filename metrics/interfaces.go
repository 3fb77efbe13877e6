// Package metrics exposes enrollment metrics in Prometheus form.
//
// Two registries implement the same Registry interface:
//   - ScrapeRegistry (server): metrics live in a Prometheus registry served on /metrics.
//   - PushRegistry: metric values are buffered and sent to a remote write
//     endpoint (VictoriaMetrics or Prometheus) each time Flush is called.
//
// EnrollmentMetrics watches the activity registry and keeps scrape metrics
// current; RosterReporter snapshots the roster into a PushRegistry on a schedule.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Gauge is a metric that represents a single numerical value that can go up and down.
type Gauge interface {
	// Set sets the Gauge to the given value.
	Set(float64)
}

// Counter is a metric that represents a single monotonically increasing counter.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()
	// Add adds the given value to the counter. It panics if the value is negative.
	Add(float64)
}

// GaugeVec is a Gauge with labels.
type GaugeVec interface {
	// With returns the Gauge for the given Labels.
	With(prometheus.Labels) Gauge
}

// CounterVec is a Counter with labels.
type CounterVec interface {
	// With returns the Counter for the given Labels.
	With(prometheus.Labels) Counter
}

// Registry creates and registers metrics.
// Implementations handle the differences between push and scrape modes.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}

// Flusher sends buffered metric values somewhere.
type Flusher interface {
	Flush(ctx context.Context) error
}
