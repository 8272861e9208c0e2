package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/bastion/pkg/config"
)

// DefaultDurationBuckets covers API latencies from 5ms to 10s.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Collector is the main orchestrator for all Prometheus metrics in Bastion.
// It manages metric registration and provides a unified interface for
// recording metrics across the pipeline stages.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics    *RequestMetrics
	protectionMetrics *ProtectionMetrics

	// Cardinality tracking for client-supplied label values
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "bastion",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "bastion"
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(100),
	}

	c.requestMetrics = NewRequestMetrics(cfg.Namespace, DefaultDurationBuckets, registry)
	c.protectionMetrics = NewProtectionMetrics(cfg.Namespace, registry)

	return c
}

// Enabled reports whether metrics are recorded.
func (c *Collector) Enabled() bool { return c.config.Enabled }

// RecordRequest records a completed HTTP request.
//
// Example:
//
//	collector.RecordRequest("GET", 200, 12*time.Millisecond)
func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	method = c.methodLabel(method)
	c.requestMetrics.RecordRequest(method, strconv.Itoa(status), duration)
}

// RecordThrottled records a request denied by the rate limiter for scope.
func (c *Collector) RecordThrottled(scope string) {
	if !c.config.Enabled {
		return
	}

	c.protectionMetrics.throttledTotal.WithLabelValues(scope).Inc()
}

// RecordMaintenanceRejection records a request rejected by maintenance mode.
func (c *Collector) RecordMaintenanceRejection() {
	if !c.config.Enabled {
		return
	}

	c.protectionMetrics.maintenanceRejections.Inc()
}

// RecordHealthCheckFailure records a failed health check.
func (c *Collector) RecordHealthCheckFailure(check string) {
	if !c.config.Enabled {
		return
	}

	c.protectionMetrics.healthFailures.WithLabelValues(check).Inc()
}

// RecordError records an error envelope written with code.
func (c *Collector) RecordError(code string) {
	if !c.config.Enabled {
		return
	}

	c.protectionMetrics.errorsTotal.WithLabelValues(code).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

var standardMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true, http.MethodConnect: true, http.MethodTrace: true,
}

func (c *Collector) methodLabel(method string) string {
	if standardMethods[method] && c.cardinalityLimiter.Allow(method) {
		return method
	}
	return "other"
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
