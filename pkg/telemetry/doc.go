// Package telemetry groups Bastion's observability packages.
//
// # Components
//
//   - logging: slog setup, request and trace id decoration, body redaction
//   - metrics: Prometheus collector and the /metrics handler
//   - tracing: W3C traceparent extraction for log correlation
//
// Spans are not exported. The tracing package only reads the inbound trace
// context so log lines can be joined with upstream traces.
package telemetry
