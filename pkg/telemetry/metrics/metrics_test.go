package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/bastion/pkg/config"
)

func testCollector(enabled bool) *Collector {
	return NewCollector(&config.MetricsConfig{Enabled: enabled, Namespace: "test", Path: "/metrics"}, nil)
}

func TestCollector_RecordRequest(t *testing.T) {
	c := testCollector(true)

	c.RecordRequest(http.MethodGet, 200, 10*time.Millisecond)
	c.RecordRequest(http.MethodGet, 200, 20*time.Millisecond)
	c.RecordRequest(http.MethodPost, 503, time.Millisecond)

	rm := c.requestMetrics
	assert.Equal(t, 2.0, testutil.ToFloat64(rm.requestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.requestsTotal.WithLabelValues("POST", "503")))
	assert.Equal(t, 2, testutil.CollectAndCount(rm.requestDuration))
}

func TestCollector_UnknownMethodCollapsed(t *testing.T) {
	c := testCollector(true)

	c.RecordRequest("BREW", 405, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestMetrics.requestsTotal.WithLabelValues("other", "405")))
}

func TestCollector_ProtectionCounters(t *testing.T) {
	c := testCollector(true)

	c.RecordThrottled("read")
	c.RecordThrottled("read")
	c.RecordMaintenanceRejection()
	c.RecordHealthCheckFailure("database")
	c.RecordError("E0001")

	pm := c.protectionMetrics
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.throttledTotal.WithLabelValues("read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.maintenanceRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.healthFailures.WithLabelValues("database")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.errorsTotal.WithLabelValues("E0001")))
}

func TestCollector_Disabled(t *testing.T) {
	c := testCollector(false)

	c.RecordRequest(http.MethodGet, 200, time.Millisecond)
	c.RecordThrottled("read")

	assert.Equal(t, 0, testutil.CollectAndCount(c.requestMetrics.requestsTotal))
	assert.Equal(t, 0, testutil.CollectAndCount(c.protectionMetrics.throttledTotal))
}

func TestCollector_Middleware(t *testing.T) {
	c := testCollector(true)
	handler := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestMetrics.requestsTotal.WithLabelValues("GET", "418")))
}

func TestCollector_MiddlewareImplicitOK(t *testing.T) {
	c := testCollector(true)
	handler := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hi"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestMetrics.requestsTotal.WithLabelValues("POST", "200")))
}

func TestCollector_Handler(t *testing.T) {
	c := testCollector(true)
	c.RecordError("throttled")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_errors_total{code="throttled"} 1`))
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	assert.True(t, cl.Allow("a"))
	assert.True(t, cl.Allow("b"))
	assert.True(t, cl.Allow("a"))
	assert.False(t, cl.Allow("c"))
	assert.Equal(t, 2, cl.Count())
}
