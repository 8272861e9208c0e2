package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"mercator-hq/bastion/pkg/telemetry/logging"
)

// BodyTooLarge replaces logged bodies whose serialization exceeds the limit.
const BodyTooLarge = "BODY TOO LARGE"

// Content types whose bodies are logged.
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// LoggingConfig configures LoggingMiddleware.
type LoggingConfig struct {
	// Logger receives the request log lines. Nil uses slog.Default().
	Logger *slog.Logger

	// MaxBodySize is the serialized size in bytes above which the body is
	// logged as BodyTooLarge.
	MaxBodySize int

	// SensitiveFields are top-level body keys masked in the log.
	SensitiveFields []string
}

// LoggingMiddleware logs a "Start of request." line before the handler runs
// and an "End of request." line after, with the parsed request body for JSON
// and form requests.
//
// Log format (JSON):
//
//	{
//	  "level": "INFO",
//	  "msg": "End of request.",
//	  "request_id": "550e8400-e29b-41d4-a716-446655440000",
//	  "method": "POST",
//	  "content_type": "application/json",
//	  "path": "/api/login/",
//	  "query": "",
//	  "body": "{\"password\":\"***\",\"user\":\"bob\"}",
//	  "user_agent": "curl/8.5.0",
//	  "ip": "192.168.1.100",
//	  "stage": "end",
//	  "status": 200,
//	  "latency_ms": 12
//	}
//
// Body problems are logged as warnings and never fail the request. The body
// is restored for downstream handlers.
func LoggingMiddleware(cfg LoggingConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bl := &bodyLogger{
		logger:   logger,
		maxSize:  cfg.MaxBodySize,
		redactor: logging.NewRedactor(cfg.SensitiveFields),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			startTime := GetStartTime(ctx)
			if startTime.IsZero() {
				startTime = time.Now()
				ctx = context.WithValue(ctx, StartTimeKey, startTime)
				r = r.WithContext(ctx)
			}

			contentType := MediaType(r.Header.Get("Content-Type"))
			attrs := []any{
				"request_id", GetRequestID(ctx),
				"method", r.Method,
				"content_type", contentType,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
			}
			if body, ok := bl.capture(ctx, r, contentType); ok {
				attrs = append(attrs, "body", body)
			}
			attrs = append(attrs,
				"user_agent", r.UserAgent(),
				"ip", ClientIP(r),
			)

			logger.InfoContext(ctx, "Start of request.", append(attrs, "stage", "start")...)

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			logger.InfoContext(ctx, "End of request.", append(attrs,
				"stage", "end",
				"status", rw.Status(),
				"latency_ms", time.Since(startTime).Milliseconds(),
			)...)
		})
	}
}

// MediaType returns the lower-cased media type of a Content-Type header,
// without parameters.
func MediaType(header string) string {
	mt, _, _ := strings.Cut(header, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

type bodyLogger struct {
	logger   *slog.Logger
	maxSize  int
	redactor *logging.Redactor
}

// Raw bodies longer than readLimit are logged as BodyTooLarge without being
// parsed. Serialization can shrink JSON (whitespace) so the raw bound is a
// multiple of the serialized limit.
const (
	bodyReadFactor = 4
	minBodyRead    = 64 << 10
)

func (b *bodyLogger) readLimit() int64 {
	limit := int64(b.maxSize) * bodyReadFactor
	if limit < minBodyRead {
		limit = minBodyRead
	}
	return limit
}

// capture reads, parses, and renders the body for logging. ok is false when
// nothing should be logged. At most readLimit()+1 bytes are buffered; the
// downstream handler still reads the full body.
func (b *bodyLogger) capture(ctx context.Context, r *http.Request, contentType string) (string, bool) {
	if contentType != ContentTypeJSON && contentType != ContentTypeForm {
		return "", false
	}
	if r.Body == nil || r.Body == http.NoBody {
		return "", false
	}

	limit := b.readLimit()
	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	r.Body = &prefixedBody{
		Reader: io.MultiReader(bytes.NewReader(raw), r.Body),
		closer: r.Body,
	}
	if err != nil {
		b.logger.WarnContext(ctx, "failed to decode request body", "error", err)
		return "", false
	}
	if len(raw) == 0 {
		return "", false
	}
	if int64(len(raw)) > limit {
		return BodyTooLarge, true
	}

	if !utf8.Valid(raw) {
		b.logger.WarnContext(ctx, "failed to decode request body as UTF-8")
		return "", false
	}

	body, err := parseBody(contentType, raw)
	if err != nil {
		b.logger.WarnContext(ctx, "failed to decode request body", "error", err)
		return "", false
	}

	return b.render(ctx, body)
}

// prefixedBody replays the bytes already read before the rest of the
// original body.
type prefixedBody struct {
	io.Reader
	closer io.Closer
}

func (p *prefixedBody) Close() error { return p.closer.Close() }

// render serializes body, applying the size guard to the unredacted form.
func (b *bodyLogger) render(ctx context.Context, body any) (string, bool) {
	full, err := json.Marshal(body)
	if err != nil {
		b.logger.WarnContext(ctx, "failed to decode request body", "error", err)
		return "", false
	}
	if len(full) > b.maxSize {
		return BodyTooLarge, true
	}

	redacted, err := json.Marshal(b.redactor.Redact(body))
	if err != nil {
		b.logger.WarnContext(ctx, "failed to decode request body", "error", err)
		return "", false
	}
	return string(redacted), true
}

func parseBody(contentType string, raw []byte) (any, error) {
	if contentType == ContentTypeForm {
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, err
		}
		// Repeated keys keep their last value.
		flat := make(map[string]any, len(values))
		for k, v := range values {
			if len(v) > 0 {
				flat[k] = v[len(v)-1]
			}
		}
		return flat, nil
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}
