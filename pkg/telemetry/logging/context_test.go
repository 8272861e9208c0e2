package logging

import (
	"context"
	"testing"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID() on empty context = %q", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}

	ctx = WithTraceID(ctx, "trace-abc")
	if got := GetTraceID(ctx); got != "trace-abc" {
		t.Errorf("GetTraceID() = %q, want %q", got, "trace-abc")
	}
}

func TestExtractContextFields(t *testing.T) {
	if attrs := extractContextFields(context.Background()); len(attrs) != 0 {
		t.Errorf("expected no fields, got %v", attrs)
	}

	ctx := WithRequestID(context.Background(), "req-1")
	attrs := extractContextFields(ctx)
	if len(attrs) != 1 || attrs[0].Key != "request_id" {
		t.Errorf("expected request_id only, got %v", attrs)
	}
}
