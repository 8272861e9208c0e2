// Package metrics provides Prometheus metrics collection for Bastion.
//
// # Metrics
//
//   - <ns>_http_requests_total{method,status}
//   - <ns>_http_request_duration_seconds{method}
//   - <ns>_ratelimit_throttled_total{scope}
//   - <ns>_maintenance_rejections_total
//   - <ns>_health_check_failures_total{check}
//   - <ns>_errors_total{code}
//
// The namespace defaults to "bastion".
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	chain.Use("metrics", collector.Middleware)
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// The Record methods double as hooks for the other stages:
//
//	middleware.ThrottleConfig{OnThrottle: collector.RecordThrottled}
//	apierror.Config{OnError: func(e *apierror.Error) { collector.RecordError(e.Code()) }}
//
// # Registry
//
// The collector owns a dedicated registry, so tests can build as many
// collectors as they like without duplicate registration panics.
//
// # Cardinality
//
// Request methods come from clients. Only the standard methods are used as
// label values; anything else is recorded as "other".
package metrics
