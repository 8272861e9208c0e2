package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"mercator-hq/bastion/pkg/telemetry/logging"
	"mercator-hq/bastion/pkg/telemetry/tracing"
)

const (
	// RequestIDHeader is the HTTP header for request ID.
	RequestIDHeader = "X-Request-ID"
)

// RequestIDConfig configures RequestIDMiddleware.
type RequestIDConfig struct {
	// TrustProxyHeaders resolves the client address from X-Forwarded-For,
	// X-Real-IP, or True-Client-IP.
	TrustProxyHeaders bool
}

// RequestIDMiddleware assigns each request a correlation id and stores it,
// the client address, the start time, and any W3C trace id in the context.
//
// An inbound X-Request-ID is reused only when it is a valid UUID; anything
// else is replaced by a fresh UUIDv4. The id is echoed in the response.
//
// Example usage:
//
//	handler = RequestIDMiddleware(RequestIDConfig{})(handler)
func RequestIDMiddleware(cfg RequestIDConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}

			ctx := logging.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, StartTimeKey, time.Now())
			ctx = context.WithValue(ctx, ClientIPKey, resolveClientIP(r, cfg.TrustProxyHeaders))

			ctx = tracing.Extract(ctx, r.Header)
			if traceID := tracing.TraceID(ctx); traceID != "" {
				ctx = logging.WithTraceID(ctx, traceID)
			}

			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}
