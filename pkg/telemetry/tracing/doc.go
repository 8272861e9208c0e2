// Package tracing extracts W3C trace context from inbound requests so log
// lines can be correlated with the caller's trace.
//
// Bastion does not create or export spans. It only reads the traceparent
// header through the OpenTelemetry TraceContext propagator:
//
//	ctx := tracing.Extract(r.Context(), r.Header)
//	if id := tracing.TraceID(ctx); id != "" {
//	    ctx = logging.WithTraceID(ctx, id)
//	}
package tracing
