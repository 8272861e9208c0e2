package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/bastion/pkg/cache"
	"mercator-hq/bastion/pkg/config"
	"mercator-hq/bastion/pkg/config/runtime"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.App.SecretKey = "test-secret"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "bastion.db")
	cfg.Server.ListenAddress = "127.0.0.1:0"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(context.Background(), cfg, Options{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Version: "test",
		Cache:   cache.NewMemoryCache(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func do(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNew_StageOrder(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	assert.Equal(t, []string{
		StageRecovery,
		StageRequestLogger,
		StageMetrics,
		StageHealth,
		StageCORS,
		StageAuth,
		StageMaintenance,
		StageSecurityHeaders,
		StageThrottle,
	}, srv.Stages())
}

func TestNew_DisabledStagesAreSkipped(t *testing.T) {
	cfg := testConfig(t)
	cfg.RequestLogging.Enabled = false
	cfg.CORS.Enabled = false
	cfg.Auth.Enabled = false
	cfg.RateLimit.Enabled = false

	srv := newTestServer(t, cfg)

	assert.Equal(t, []string{
		StageRecovery,
		StageMetrics,
		StageHealth,
		StageMaintenance,
		StageSecurityHeaders,
	}, srv.Stages())
}

func TestServer_HealthCheck(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rec := do(t, srv.Handler(), http.MethodGet, config.DefaultHealthCheckEndpoint, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestServer_HealthCheckThrottled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Health.ThrottleRate = "1/minute"
	srv := newTestServer(t, cfg)

	first := do(t, srv.Handler(), http.MethodGet, config.DefaultHealthCheckEndpoint, "")
	second := do(t, srv.Handler(), http.MethodGet, config.DefaultHealthCheckEndpoint, "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Empty(t, second.Body.String())
}

func TestServer_Maintenance(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.AllowedURLs = []string{"/version"}
	srv := newTestServer(t, cfg)
	ctx := context.Background()

	require.NoError(t, srv.Accessor().Set(ctx, runtime.MaintenanceEnable, true))

	rec := do(t, srv.Handler(), http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := envelope(t, rec)
	assert.Equal(t, "E0001", body["code"])
	assert.Equal(t, config.DefaultMaintenanceMessage, body["message"])
	assert.NotEmpty(t, body["request_id"])

	rec = do(t, srv.Handler(), http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	staff, err := srv.Tokens().Issue("ops", true)
	require.NoError(t, err)
	rec = do(t, srv.Handler(), http.MethodGet, "/livez", staff)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The health check is answered before the maintenance gate.
	rec = do(t, srv.Handler(), http.MethodGet, config.DefaultHealthCheckEndpoint, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_NotFoundEnvelope(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rec := do(t, srv.Handler(), http.MethodGet, "/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := envelope(t, rec)
	assert.Equal(t, "not_found", body["code"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body["request_id"])
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestServer_NotFoundInDebugHasNoSecurityHeaders(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.Debug = true
	srv := newTestServer(t, cfg)

	rec := do(t, srv.Handler(), http.MethodGet, "/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Frame-Options"))
}

func TestServer_PanicRecovery(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := do(t, srv.Handler(), http.MethodGet, "/boom", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := envelope(t, rec)
	assert.Equal(t, "E0000", body["code"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body["request_id"])
}

func TestServer_Throttle(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Rate = "2/minute"
	cfg.RateLimit.BurstRate = ""
	srv := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		rec := do(t, srv.Handler(), http.MethodGet, "/livez", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, srv.Handler(), http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "throttled", envelope(t, rec)["code"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Writes have their own bucket.
	rec = do(t, srv.Handler(), http.MethodPost, "/livez", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_AdminAPI(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	staff, err := srv.Tokens().Issue("ops", true)
	require.NoError(t, err)
	user, err := srv.Tokens().Issue("bob", false)
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodGet, "/admin/config", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-staff", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodGet, "/admin/config", user)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodGet, "/admin/config", staff)
		require.Equal(t, http.StatusOK, rec.Code)
		body := envelope(t, rec)
		assert.EqualValues(t, 4, body["count"])
	})

	t.Run("update then reset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/admin/config/"+runtime.MaintenanceMessage,
			strings.NewReader(`{"value":"back at noon"}`))
		req.Header.Set("Authorization", "Bearer "+staff)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		msg, err := srv.Accessor().String(context.Background(), runtime.MaintenanceMessage)
		require.NoError(t, err)
		assert.Equal(t, "back at noon", msg)

		rec = do(t, srv.Handler(), http.MethodPost, "/admin/config/reset", staff)
		require.Equal(t, http.StatusNoContent, rec.Code)

		msg, err = srv.Accessor().String(context.Background(), runtime.MaintenanceMessage)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultMaintenanceMessage, msg)
	})
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	do(t, srv.Handler(), http.MethodGet, "/missing", "")
	rec := do(t, srv.Handler(), http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bastion_http_requests_total")
	assert.Contains(t, rec.Body.String(), `bastion_errors_total{code="not_found"} 1`)
}

func TestServer_DatabaseRuntimeStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.RuntimeConfig.Backend = "database"
	srv := newTestServer(t, cfg)
	ctx := context.Background()

	require.NoError(t, srv.Accessor().Set(ctx, runtime.MaintenanceAllowedIPs, []string{"10.0.0.1"}))

	ips, err := srv.Accessor().Strings(ctx, runtime.MaintenanceAllowedIPs)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1"}, ips)
}

func TestServer_OverridesFileApplied(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("MAINTENANCE_MESSAGE: \"Planned upgrade\"\n"), 0o644))
	cfg.RuntimeConfig.OverridesFile = path

	srv := newTestServer(t, cfg)

	msg, err := srv.Accessor().String(context.Background(), runtime.MaintenanceMessage)
	require.NoError(t, err)
	assert.Equal(t, "Planned upgrade", msg)
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, srv.IsRunning, time.Second, 10*time.Millisecond)
	require.Error(t, srv.Start(context.Background()), "second Start must fail")

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, srv.IsRunning())
}

func TestAdminConfigPath(t *testing.T) {
	assert.Equal(t, "/admin/config", AdminConfigPath("/admin/"))
	assert.Equal(t, "/ops/config", AdminConfigPath("/ops"))
}

func TestNew_TLSCertificateMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.TLS.Enabled = true
	cfg.Server.TLS.CertFile = filepath.Join(t.TempDir(), "server.crt")
	cfg.Server.TLS.KeyFile = filepath.Join(t.TempDir(), "server.key")

	_, err := New(context.Background(), cfg, Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Cache:  cache.NewMemoryCache(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to configure TLS")
}
