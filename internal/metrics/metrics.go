// Package metrics exposes Prometheus metrics for the PIX client.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for transport calls and object builds.
type Metrics struct {
	// Transport
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    prometheus.Counter
	LoginsTotal     prometheus.Counter

	// Object factory
	ObjectsBuiltTotal  prometheus.Counter
	BuildWarningsTotal prometheus.Counter

	// Project guard
	ActivationsTotal prometheus.Counter
}

// New creates and registers Prometheus metrics for the client.
//
// This function uses sync.Once to ensure metrics are only registered once
// globally, preventing "duplicate metrics collector registration" panics.
//
// All metrics are prefixed with "pix_" for namespacing.
//
// Metrics:
//   - pix_requests_total{method,code} - Count of HTTP requests by result
//   - pix_request_duration_seconds{method} - Histogram of request latencies
//   - pix_request_retries_total - Count of retried requests
//   - pix_logins_total - Count of session logins (including re-logins)
//   - pix_objects_built_total - Count of objects produced by the factory
//   - pix_build_warnings_total - Count of malformed discriminator fallbacks
//   - pix_project_activations_total - Count of active-project switches
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "pix_requests_total",
					Help: "Total number of PIX API requests",
				},
				[]string{"method", "code"},
			),

			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "pix_request_duration_seconds",
					Help:    "Duration of PIX API requests in seconds",
					Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
				},
				[]string{"method"},
			),

			RetriesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pix_request_retries_total",
					Help: "Total number of retried PIX API requests",
				},
			),

			LoginsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pix_logins_total",
					Help: "Total number of session logins",
				},
			),

			ObjectsBuiltTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pix_objects_built_total",
					Help: "Total number of objects produced by the factory",
				},
			),

			BuildWarningsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pix_build_warnings_total",
					Help: "Total number of malformed type discriminators tolerated",
				},
			),

			ActivationsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "pix_project_activations_total",
					Help: "Total number of active-project switches",
				},
			),
		}
	})

	return globalMetrics
}

// RecordRequest records a completed request with its HTTP status and duration.
func (m *Metrics) RecordRequest(method string, code int, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordRetry records one retried request attempt.
func (m *Metrics) RecordRetry() {
	m.RetriesTotal.Inc()
}

// RecordLogin records a session login.
func (m *Metrics) RecordLogin() {
	m.LoginsTotal.Inc()
}

// RecordObjectBuilt records one object produced by the factory.
func (m *Metrics) RecordObjectBuilt() {
	m.ObjectsBuiltTotal.Inc()
}

// RecordBuildWarning records a malformed discriminator fallback.
func (m *Metrics) RecordBuildWarning() {
	m.BuildWarningsTotal.Inc()
}

// RecordActivation records an active-project switch.
func (m *Metrics) RecordActivation() {
	m.ActivationsTotal.Inc()
}
