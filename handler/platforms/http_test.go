package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestudio/config"
	"firestudio/handler"
	"firestudio/health"
	"firestudio/observability/logger"
	"firestudio/observability/metrics"
	"firestudio/observability/monitor"
)

type echoWorker struct {
	health error
}

func (w *echoWorker) Name() string { return "camera" }

func (w *echoWorker) Process(ctx context.Context, req handler.Request) (handler.Response, error) {
	return handler.NewSuccessResponse(req.ID, map[string]string{
		"type":   req.Type,
		"method": req.Metadata["http_method"],
	})
}

func (w *echoWorker) Health(ctx context.Context) error { return w.health }

func newTestAdapter(t *testing.T, worker handler.Worker) *HTTPAdapter {
	t.Helper()

	reg := metrics.NewRegistry("test")
	log := logger.New("test", "test", "error", &bytes.Buffer{}, nil)

	mon, err := monitor.NewMonitor(reg, log)
	require.NoError(t, err)

	h := handler.NewHandler(worker, &config.HandlerConfig{Timeout: time.Second})
	h.Use(handler.ValidationMiddleware())
	aggregator := health.NewAggregator("1.0.0", map[string]string{
		"database": health.StatusConnected,
	})

	return NewHTTPAdapter(h, mon, aggregator, []string{"http://localhost:3000"})
}

func TestHTTPAdapter_RoutesToWorker(t *testing.T) {
	adapter := newTestAdapter(t, &echoWorker{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"filename":"a.jpg"}`))
	rec := httptest.NewRecorder()

	adapter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handler.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "upload", data["type"])
	assert.Equal(t, "POST", data["method"])
}

func TestHTTPAdapter_RequestIDFromHeader(t *testing.T) {
	adapter := newTestAdapter(t, &echoWorker{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{}`))
	req.Header.Set("X-Request-ID", "req-77")
	rec := httptest.NewRecorder()

	adapter.ServeHTTP(rec, req)

	var resp handler.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "req-77", resp.ID)
}

func TestHTTPAdapter_Health(t *testing.T) {
	adapter := newTestAdapter(t, &echoWorker{})

	for _, path := range []string{"/api/health", "/health", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		adapter.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)

		var status health.Status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, health.StatusHealthy, status.Status)
		assert.Equal(t, "1.0.0", status.Version)
		assert.Equal(t, health.StatusConnected, status.Services["camera"])
	}
}

func TestHTTPAdapter_HealthDegradedWorker(t *testing.T) {
	adapter := newTestAdapter(t, &echoWorker{health: errors.New("storage down")})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	adapter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status health.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, health.StatusDegraded, status.Status)
	assert.Equal(t, health.StatusDisconnected, status.Services["camera"])
}

func TestHTTPAdapter_CORS(t *testing.T) {
	adapter := newTestAdapter(t, &echoWorker{})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		adapter.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rec := httptest.NewRecorder()

		adapter.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHTTPAdapter_Root(t *testing.T) {
	adapter := newTestAdapter(t, &echoWorker{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	adapter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fire Studio Camera API")
}

func TestHTTPAdapter_ErrorStatusMapping(t *testing.T) {
	adapter := newTestAdapter(t, &echoWorker{})

	// Empty body fails validation in the handler chain
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()

	adapter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handler.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestExtractRequestType(t *testing.T) {
	adapter := newTestAdapter(t, &echoWorker{})

	cases := map[string]string{
		"/api/upload":      "upload",
		"/api/reading":     "reading",
		"/api/upload/meta": "upload",
		"/upload":          "upload",
		"/api/":            "",
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		assert.Equal(t, want, adapter.extractRequestType(req), path)
	}
}
