package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/models"
	prometheusMetrics "looker-content-cleanup/internal/infrastructure/metrics"
	"looker-content-cleanup/internal/interfaces/http/handlers"
	"looker-content-cleanup/internal/usecases/cleanup"
)

type fakeUseCase struct {
	result     *models.RunResult
	runErr     error
	restoreErr error
	restored   []string
	status     cleanup.RunStatus
}

func (f *fakeUseCase) Run(ctx context.Context) (*models.RunResult, error) {
	return f.result, f.runErr
}

func (f *fakeUseCase) Status() cleanup.RunStatus { return f.status }

func (f *fakeUseCase) Restore(ctx context.Context, kind models.Kind, id string) error {
	f.restored = append(f.restored, string(kind)+"/"+id)
	return f.restoreErr
}

const testToken = "s3cret-token"

func newTestApp(t *testing.T, uc *fakeUseCase) *FiberApp {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	collector := prometheusMetrics.NewPrometheusMetrics(registry, logger)

	h := handlers.NewHandlers(logger, "1.0.0", "now", uc, registry, collector)
	app := NewFiberApp(logger, time.Minute)
	SetupRoutes(app, h, collector, RouteConfig{TriggerToken: testToken, APITimeout: time.Minute}, logger)
	return app
}

func do(t *testing.T, app *FiberApp, method, path, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp, body
}

func TestTriggerCleanup(t *testing.T) {
	result := &models.RunResult{
		RunID:  "run-1",
		DryRun: true,
		SoftDeleted: []models.Outcome{
			{Item: models.ContentItem{ID: "1", Kind: models.KindDashboard}, Status: models.StatusDryRun},
			{Item: models.ContentItem{ID: "2", Kind: models.KindLook}, Status: models.StatusFailed, Reason: "boom"},
		},
	}

	tests := []struct {
		name       string
		token      string
		uc         *fakeUseCase
		wantStatus int
		wantBody   string
	}{
		{"missing token", "", &fakeUseCase{result: result}, http.StatusUnauthorized, ""},
		{"wrong token", "nope", &fakeUseCase{result: result}, http.StatusUnauthorized, ""},
		{"success with item failure", testToken, &fakeUseCase{result: result}, http.StatusOK, "ok"},
		{"run in progress", testToken, &fakeUseCase{runErr: models.ErrRunInProgress}, http.StatusConflict, "busy"},
		{"fatal error", testToken, &fakeUseCase{result: &models.RunResult{RunID: "run-2"},
			runErr: &models.ConfigurationError{Setting: "unused_content", Err: models.ErrReportNotFound}}, http.StatusInternalServerError, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.uc)
			resp, body := do(t, app, http.MethodPost, "/api/v1/cleanup", tt.token)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body["status"])
			}
		})
	}

	app := newTestApp(t, &fakeUseCase{result: result})
	_, body := do(t, app, http.MethodPost, "/api/v1/cleanup", testToken)
	assert.EqualValues(t, 1, body["soft_deleted"])
	assert.EqualValues(t, 1, body["soft_delete_failed"])
	assert.EqualValues(t, 0, body["hard_deleted"])
}

func TestRestoreContent(t *testing.T) {
	uc := &fakeUseCase{}
	app := newTestApp(t, uc)

	resp, body := do(t, app, http.MethodPost, "/api/v1/content/look/42/restore", testToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "restored", body["status"])
	assert.Equal(t, []string{"look/42"}, uc.restored)

	resp, _ = do(t, app, http.MethodPost, "/api/v1/content/explore/42/restore", testToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	uc.restoreErr = errors.New("404 not found")
	resp, body = do(t, app, http.MethodPost, "/api/v1/content/dashboard/7/restore", testToken)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["message"], "404")
}

func TestOperationalRoutes(t *testing.T) {
	app := newTestApp(t, &fakeUseCase{status: cleanup.RunStatus{Running: true, LastRunID: "run-0"}})

	resp, body := do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	require.IsType(t, map[string]interface{}{}, body["cleanup"])
	run := body["cleanup"].(map[string]interface{})
	assert.Equal(t, true, run["running"])
	assert.Equal(t, "run-0", run["last_run_id"])

	resp, body = do(t, app, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.0.0", body["version"])

	resp, _ = do(t, app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", body["message"])
	assert.Equal(t, resp.Header.Get("X-Request-ID"), body["request_id"])
}

func TestWriteTimeoutFollowsCleanupTimeout(t *testing.T) {
	app := NewFiberApp(zap.NewNop(), 20*time.Minute)
	assert.Equal(t, 21*time.Minute, app.Config().WriteTimeout)
}
