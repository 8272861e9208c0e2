package middleware

import (
	"context"
	"net/http"
	"strings"
)

// SecurityConfig configures SecurityHeadersMiddleware.
type SecurityConfig struct {
	// CDNHost is allowed for scripts and styles in the content security policy.
	CDNHost string

	// Debug reports whether debug mode is on. In debug mode 404 and 500
	// responses are left without security headers so framework error pages
	// render. Nil means never.
	Debug func(ctx context.Context) bool
}

// SecurityHeaders returns the headers added to every response.
func SecurityHeaders(cdnHost string) map[string]string {
	csp := strings.Join([]string{
		"default-src 'self'",
		"img-src 'self' data: https:",
		"script-src 'self' 'unsafe-inline' " + cdnHost,
		"style-src 'self' 'unsafe-inline' https://" + cdnHost,
		"frame-ancestors 'none'",
	}, "; ")

	return map[string]string{
		"X-Frame-Options":           "DENY",
		"X-XSS-Protection":          "1; mode=block",
		"X-Content-Type-Options":    "nosniff",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Content-Security-Policy":   csp,
	}
}

// SecurityHeadersMiddleware adds the security headers when the response
// status is written.
func SecurityHeadersMiddleware(cfg SecurityConfig) func(http.Handler) http.Handler {
	headers := SecurityHeaders(cfg.CDNHost)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rw := newResponseWriter(w)
			rw.beforeHeader = func(status int, h http.Header) {
				if (status == http.StatusInternalServerError || status == http.StatusNotFound) &&
					cfg.Debug != nil && cfg.Debug(ctx) {
					return
				}
				for k, v := range headers {
					h.Set(k, v)
				}
			}

			next.ServeHTTP(rw, r)

			// Handlers that write nothing still get a status.
			if !rw.written {
				rw.WriteHeader(http.StatusOK)
			}
		})
	}
}
