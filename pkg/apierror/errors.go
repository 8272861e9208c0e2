package apierror

import (
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a client-facing error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindPermissionDenied
	KindNotAuthenticated
	KindAuthenticationFailed
	KindMethodNotAllowed
	KindValidation
	KindRequestBodyValidation
	KindThrottled
	KindServiceUnavailable
)

// Error codes that are not derived from a kind name.
const (
	CodeInternal           = "E0000"
	CodeServiceUnavailable = "E0001"
)

type kindInfo struct {
	name    string
	status  int
	code    string
	message string
}

var kinds = map[Kind]kindInfo{
	KindInternal:              {"internal", http.StatusInternalServerError, CodeInternal, "Internal Server Error."},
	KindNotFound:              {"not_found", http.StatusNotFound, "not_found", "Not found."},
	KindPermissionDenied:      {"permission_denied", http.StatusForbidden, "permission_denied", "You do not have permission to perform this action."},
	KindNotAuthenticated:      {"not_authenticated", http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided."},
	KindAuthenticationFailed:  {"authentication_failed", http.StatusUnauthorized, "authentication_failed", "Incorrect authentication credentials."},
	KindMethodNotAllowed:      {"method_not_allowed", http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed."},
	KindValidation:            {"validation", http.StatusBadRequest, "invalid", "Invalid input."},
	KindRequestBodyValidation: {"request_body_validation", http.StatusUnprocessableEntity, "invalid", "Invalid input."},
	KindThrottled:             {"throttled", http.StatusTooManyRequests, "throttled", "Request was throttled."},
	KindServiceUnavailable:    {"service_unavailable", http.StatusServiceUnavailable, CodeServiceUnavailable, "Service Unavailable."},
}

func (k Kind) info() kindInfo {
	if i, ok := kinds[k]; ok {
		return i
	}
	return kinds[KindInternal]
}

// String returns the kind name used in logs.
func (k Kind) String() string { return k.info().name }

// Status returns the HTTP status for the kind.
func (k Kind) Status() int { return k.info().status }

// Code returns the envelope code for the kind.
func (k Kind) Code() string { return k.info().code }

// DefaultMessage returns the message used when none is given.
func (k Kind) DefaultMessage() string { return k.info().message }

// Error is a client-facing error.
type Error struct {
	Kind    Kind
	Message string

	// Fields carries per-field messages for the validation kinds. When set it
	// replaces Message in the envelope.
	Fields map[string][]string

	// Details is optional structured context for the client.
	Details any

	// AuthHeader is sent as WWW-Authenticate.
	AuthHeader string

	// Wait is sent as Retry-After, rounded up to whole seconds.
	Wait time.Duration

	// cause is logged but never sent.
	cause error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %v", e.Kind, e.Fields)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.message())
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code.
func (e *Error) Status() int { return e.Kind.Status() }

// Code returns the envelope code.
func (e *Error) Code() string { return e.Kind.Code() }

func (e *Error) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.DefaultMessage()
}

// WithCause attaches an underlying error for logging and errors.Is.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// WithDetails attaches client-visible details.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// New creates an error of kind with an optional message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NotFound creates a 404 error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// PermissionDenied creates a 403 error.
func PermissionDenied(message string) *Error { return New(KindPermissionDenied, message) }

// NotAuthenticated creates a 401 error asking for credentials.
func NotAuthenticated(authHeader string) *Error {
	return &Error{Kind: KindNotAuthenticated, AuthHeader: authHeader}
}

// AuthenticationFailed creates a 401 error for rejected credentials.
func AuthenticationFailed(message, authHeader string) *Error {
	return &Error{Kind: KindAuthenticationFailed, Message: message, AuthHeader: authHeader}
}

// MethodNotAllowed creates a 405 error.
func MethodNotAllowed() *Error { return New(KindMethodNotAllowed, "") }

// Validation creates a 400 error with per-field messages.
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

// RequestBodyValidation creates a 422 error with per-field messages.
func RequestBodyValidation(fields map[string][]string) *Error {
	return &Error{Kind: KindRequestBodyValidation, Fields: fields}
}

// Throttled creates a 429 error. wait is the time until the next request
// would be allowed.
func Throttled(wait time.Duration) *Error {
	return &Error{Kind: KindThrottled, Wait: wait}
}

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *Error { return New(KindServiceUnavailable, message) }

// Internal creates a 500 error. The cause is logged, never sent.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, cause: cause}
}
