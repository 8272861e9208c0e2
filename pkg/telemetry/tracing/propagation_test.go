package tracing

import (
	"context"
	"net/http"
	"testing"
)

func TestValidateTraceParent(t *testing.T) {
	tests := []struct {
		name        string
		traceparent string
		want        bool
	}{
		{
			name:        "valid traceparent",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			want:        true,
		},
		{
			name:        "valid traceparent - not sampled",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00",
			want:        true,
		},
		{
			name:        "invalid - wrong number of parts",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7",
		},
		{
			name:        "invalid - version wrong length",
			traceparent: "0-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		},
		{
			name:        "invalid - trace ID wrong length",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e473-00f067aa0ba902b7-01",
		},
		{
			name:        "invalid - non hex",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e473z-00f067aa0ba902b7-01",
		},
		{
			name:        "invalid - zero trace ID",
			traceparent: "00-00000000000000000000000000000000-00f067aa0ba902b7-01",
		},
		{
			name:        "invalid - zero parent ID",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateTraceParent(tt.traceparent); got != tt.want {
				t.Errorf("ValidateTraceParent(%q) = %v, want %v", tt.traceparent, got, tt.want)
			}
		})
	}
}

func TestExtractTraceID(t *testing.T) {
	headers := http.Header{}
	headers.Set(Header, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	ctx := Extract(context.Background(), headers)
	if got := TraceID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceID() = %q, want 4bf92f3577b34da6a3ce929d0e0e4736", got)
	}
}

func TestExtractWithoutHeader(t *testing.T) {
	ctx := Extract(context.Background(), http.Header{})
	if got := TraceID(ctx); got != "" {
		t.Errorf("TraceID() = %q, want empty", got)
	}

	headers := http.Header{}
	headers.Set(Header, "garbage")
	if got := TraceID(Extract(context.Background(), headers)); got != "" {
		t.Errorf("TraceID() with malformed header = %q, want empty", got)
	}
}
