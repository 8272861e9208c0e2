package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks HTTP traffic.
//
// Metrics:
//   - <ns>_http_requests_total: request count by method and status
//   - <ns>_http_request_duration_seconds: latency histogram by method
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(namespace string, buckets []float64, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   buckets,
			},
			[]string{"method"},
		),
	}

	registry.MustRegister(rm.requestsTotal, rm.requestDuration)

	return rm
}

// RecordRequest records one request.
func (rm *RequestMetrics) RecordRequest(method, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(method, status).Inc()
	rm.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ProtectionMetrics counts requests turned away by the protective stages.
//
// Metrics:
//   - <ns>_ratelimit_throttled_total{scope}
//   - <ns>_maintenance_rejections_total
//   - <ns>_health_check_failures_total{check}
//   - <ns>_errors_total{code}
type ProtectionMetrics struct {
	throttledTotal        *prometheus.CounterVec
	maintenanceRejections prometheus.Counter
	healthFailures        *prometheus.CounterVec
	errorsTotal           *prometheus.CounterVec
}

// NewProtectionMetrics creates and registers the protection metrics.
func NewProtectionMetrics(namespace string, registry *prometheus.Registry) *ProtectionMetrics {
	pm := &ProtectionMetrics{
		throttledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "throttled_total",
				Help:      "Requests denied by the rate limiter",
			},
			[]string{"scope"},
		),
		maintenanceRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "maintenance",
				Name:      "rejections_total",
				Help:      "Requests rejected while maintenance mode was on",
			},
		),
		healthFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "health_check",
				Name:      "failures_total",
				Help:      "Failed health checks by check name",
			},
			[]string{"check"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Error envelopes written by code",
			},
			[]string{"code"},
		),
	}

	registry.MustRegister(pm.throttledTotal, pm.maintenanceRejections, pm.healthFailures, pm.errorsTotal)

	return pm
}
