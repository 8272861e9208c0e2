package apierror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"

	json "github.com/goccy/go-json"

	"mercator-hq/bastion/pkg/telemetry/logging"
)

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

// Envelope is the JSON body of every error response.
type Envelope struct {
	Code      string `json:"code"`
	Message   any    `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Config configures a Handler.
type Config struct {
	// Logger receives the API exception and unhandled error logs.
	Logger *slog.Logger

	// Debug reports whether debug mode is on for the request. Debug mode
	// indents envelopes. Nil means never.
	Debug func(ctx context.Context) bool

	// OnError observes every written error. Used for metrics.
	OnError func(e *Error)
}

// Handler writes errors as envelopes.
type Handler struct {
	logger  *slog.Logger
	debug   func(ctx context.Context) bool
	onError func(e *Error)
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger.With("component", "apierror"),
		debug:   cfg.Debug,
		onError: cfg.OnError,
	}
}

// Normalize maps err to a client-facing Error using the handler's logger.
func (h *Handler) Normalize(ctx context.Context, err error) *Error {
	return Normalize(ctx, h.logger, err)
}

// Envelope builds the response body for e.
func (h *Handler) Envelope(ctx context.Context, e *Error) Envelope {
	env := Envelope{
		Code:      e.Code(),
		Message:   e.message(),
		Details:   e.Details,
		RequestID: logging.GetRequestID(ctx),
	}
	if len(e.Fields) > 0 {
		env.Message = e.Fields
	}
	return env
}

// Write normalizes err and writes it. It never fails; encoding problems are
// logged.
func (h *Handler) Write(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	e := h.Normalize(ctx, err)
	if e == nil {
		e = Internal(errors.New("nil error written"))
	}

	if h.onError != nil {
		h.onError(e)
	}

	hdr := w.Header()
	if e.AuthHeader != "" {
		hdr.Set("WWW-Authenticate", e.AuthHeader)
	}
	if e.Wait > 0 {
		hdr.Set("Retry-After", strconv.FormatInt(int64(math.Ceil(e.Wait.Seconds())), 10))
	}

	env := h.Envelope(ctx, e)
	if env.RequestID == "" {
		// Recovery runs outside the request id stage; the id is only on the response.
		env.RequestID = hdr.Get(RequestIDHeader)
	}

	h.logger.InfoContext(ctx, "API exception",
		"kind", e.Kind.String(),
		"code", e.Code(),
		"status", e.Status(),
		"envelope", env,
	)

	body, encErr := h.encode(ctx, env)
	if encErr != nil {
		h.logger.ErrorContext(ctx, "Failed to encode error envelope", "error", encErr)
		body = []byte(fmt.Sprintf(`{"code":%q,"message":%q}`, CodeInternal, KindInternal.DefaultMessage()))
		e = Internal(encErr)
	}

	hdr.Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	_, _ = w.Write(body)
}

func (h *Handler) encode(ctx context.Context, env Envelope) ([]byte, error) {
	if h.debug != nil && h.debug(ctx) {
		return json.MarshalIndent(env, "", "  ")
	}
	return json.Marshal(env)
}

// HandlerFunc is an HTTP handler that returns an error instead of writing it.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Wrap adapts fn into an http.Handler that writes returned errors.
func (h *Handler) Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.Write(w, r, err)
		}
	})
}

// NotFound writes a 404 envelope. Suitable as a router fallback.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Write(w, r, NotFound(""))
}

// MethodNotAllowed writes a 405 envelope. Suitable as a router fallback.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.Write(w, r, MethodNotAllowed())
}

// Recovery turns panics into Internal errors written through the handler.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func (h *Handler) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			h.logger.ErrorContext(r.Context(), "Panic in handler",
				"error", err.Error(),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			h.Write(w, r, Internal(err))
		}()

		next.ServeHTTP(w, r)
	})
}
