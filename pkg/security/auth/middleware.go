package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"mercator-hq/bastion/pkg/apierror"
)

// Challenge is sent as WWW-Authenticate with 401 responses.
const Challenge = `Bearer realm="api"`

// Middleware authenticates bearer tokens.
type Middleware struct {
	tokens *TokenManager
	errors *apierror.Handler
	logger *slog.Logger
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens *TokenManager, errs *apierror.Handler, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		tokens: tokens,
		errors: errs,
		logger: logger.With("component", "auth"),
	}
}

// Handle wraps next. Requests without credentials pass through anonymous.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			// Other schemes are not ours to judge.
			if ok && !strings.EqualFold(scheme, "Bearer") {
				next.ServeHTTP(w, r)
				return
			}
			m.errors.Write(w, r, apierror.AuthenticationFailed("Invalid token header.", Challenge))
			return
		}

		claims, err := m.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			m.logger.WarnContext(r.Context(), "Invalid bearer token",
				"error", err,
				"path", r.URL.Path,
			)
			m.errors.Write(w, r, apierror.AuthenticationFailed("Invalid or expired token.", Challenge))
			return
		}

		ctx := WithPrincipal(r.Context(), Principal{Subject: claims.Subject, Staff: claims.Staff})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireStaff rejects anonymous (401) and non-staff (403) callers.
func RequireStaff(errs *apierror.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			switch {
			case !ok:
				errs.Write(w, r, apierror.NotAuthenticated(Challenge))
			case !p.Staff:
				errs.Write(w, r, apierror.PermissionDenied(""))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
