package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware(SecurityConfig{CDNHost: "cdn.example.com"})(statusHandler(http.StatusOK))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	h := rec.Header()
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
	assert.Equal(t,
		"default-src 'self'; img-src 'self' data: https:; "+
			"script-src 'self' 'unsafe-inline' cdn.example.com; "+
			"style-src 'self' 'unsafe-inline' https://cdn.example.com; frame-ancestors 'none'",
		h.Get("Content-Security-Policy"))
}

func TestSecurityHeadersMiddleware_HandlerWritesNothing(t *testing.T) {
	handler := SecurityHeadersMiddleware(SecurityConfig{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestSecurityHeadersMiddleware_DebugErrorPages(t *testing.T) {
	tests := []struct {
		name    string
		debug   bool
		status  int
		headers bool
	}{
		{name: "debug 404", debug: true, status: http.StatusNotFound, headers: false},
		{name: "debug 500", debug: true, status: http.StatusInternalServerError, headers: false},
		{name: "debug 400", debug: true, status: http.StatusBadRequest, headers: true},
		{name: "production 404", debug: false, status: http.StatusNotFound, headers: true},
		{name: "production 500", debug: false, status: http.StatusInternalServerError, headers: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := SecurityHeadersMiddleware(SecurityConfig{
				Debug: func(context.Context) bool { return tt.debug },
			})(statusHandler(tt.status))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.headers, rec.Header().Get("X-Frame-Options") != "")
		})
	}
}
