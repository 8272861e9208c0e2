package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/bastion/pkg/apierror"
	"mercator-hq/bastion/pkg/config"
	"mercator-hq/bastion/pkg/config/runtime"
	"mercator-hq/bastion/pkg/pagination"
	"mercator-hq/bastion/pkg/security/auth"
)

func newTestHandler(t *testing.T) (http.Handler, *runtime.Accessor) {
	t.Helper()
	static := config.Settings{
		runtime.MaintenanceEnable:  false,
		runtime.MaintenanceMessage: "Down for maintenance.",
	}
	acc := runtime.NewAccessor(runtime.NewMemoryStore(), static, runtime.DefaultOptions(static)...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(Config{
		Accessor:   acc,
		Errors:     apierror.NewHandler(apierror.Config{Logger: logger}),
		Pagination: pagination.Config{PageSize: 2, MaxPageSize: 10, PageSizeParam: "page_size"},
		Logger:     logger,
	})
	return h.Routes(), acc
}

func do(h http.Handler, method, target, body string, p *auth.Principal) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var staff = &auth.Principal{Subject: "admin", Staff: true}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAdmin_RequiresStaff(t *testing.T) {
	h, _ := newTestHandler(t)

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodGet, "/", "", &auth.Principal{Subject: "bob"}).Code)
}

func TestAdmin_List(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodGet, "/", "", staff)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 4, body["count"])
	assert.EqualValues(t, 2, body["next"])
	assert.Nil(t, body["previous"])

	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, runtime.MaintenanceAllowedIPs, first["name"])

	rec = do(h, http.MethodGet, "/?page=2", "", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["next"])
}

func TestAdmin_Get(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodGet, "/"+runtime.MaintenanceMessage, "", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Down for maintenance.", body["value"])
	assert.Equal(t, runtime.SourceStatic, body["source"])

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/NOPE", "", staff).Code)
}

func TestAdmin_Update(t *testing.T) {
	h, acc := newTestHandler(t)

	rec := do(h, http.MethodPut, "/"+runtime.MaintenanceEnable, `{"value": true}`, staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, runtime.SourceRuntime, decode(t, rec)["source"])

	enabled, err := acc.Bool(context.Background(), runtime.MaintenanceEnable)
	require.NoError(t, err)
	assert.True(t, enabled)

	// false must not trip the required check.
	rec = do(h, http.MethodPut, "/"+runtime.MaintenanceEnable, `{"value": false}`, staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["value"])
}

func TestAdmin_UpdateValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing value", body: `{}`, field: "value"},
		{name: "wrong type", body: `{"value": 12}`, field: "value"},
		{name: "malformed json", body: `{"value":`, field: "non_field_errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPut, "/"+runtime.MaintenanceEnable, tt.body, staff)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			message := decode(t, rec)["message"].(map[string]any)
			assert.Contains(t, message, tt.field)
		})
	}
}

func TestAdmin_UpdateUnknown(t *testing.T) {
	h, _ := newTestHandler(t)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPut, "/DEBUG", `{"value": true}`, staff).Code)
}

func TestAdmin_Reset(t *testing.T) {
	h, acc := newTestHandler(t)
	ctx := context.Background()
	require.NoError(t, acc.Set(ctx, runtime.MaintenanceMessage, "changed"))

	rec := do(h, http.MethodPost, "/reset", "", staff)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	msg, err := acc.String(ctx, runtime.MaintenanceMessage)
	require.NoError(t, err)
	assert.Equal(t, "Down for maintenance.", msg)
}

func TestAdmin_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodDelete, "/"+runtime.MaintenanceEnable, "", staff)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
