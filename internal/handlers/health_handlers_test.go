package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func serveHealth(t *testing.T, h *HealthHandlers, handler echo.HandlerFunc) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	require.NoError(t, handler(c))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		cache      Pinger
		storage    Pinger
		wantCode   int
		wantStatus string
		wantCache  string
		wantStore  string
	}{
		{"all healthy", fakePinger{}, fakePinger{}, fakePinger{}, http.StatusOK, "healthy", "healthy", "healthy"},
		{"storage disabled", fakePinger{}, fakePinger{}, nil, http.StatusOK, "healthy", "healthy", "disabled"},
		{"redis down", fakePinger{}, fakePinger{err: errors.New("dial tcp")}, nil, http.StatusPartialContent, "degraded", "unhealthy", "disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandlers(tt.db, tt.cache, tt.storage, "1.0.0")

			code, body := serveHealth(t, h, h.HealthCheck)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, "1.0.0", body["version"])
			services := body["services"].(map[string]interface{})
			assert.Equal(t, "healthy", services["database"])
			assert.Equal(t, tt.wantCache, services["redis"])
			assert.Equal(t, tt.wantStore, services["storage"])
		})
	}
}

func TestReadinessCheck(t *testing.T) {
	ready := NewHealthHandlers(fakePinger{}, fakePinger{err: errors.New("redis down")}, nil, "1.0.0")
	code, body := serveHealth(t, ready, ready.ReadinessCheck)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	notReady := NewHealthHandlers(fakePinger{err: errors.New("db down")}, fakePinger{}, nil, "1.0.0")
	code, body = serveHealth(t, notReady, notReady.ReadinessCheck)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, "Critical services unavailable", body["message"])
}

func TestDetailedHealthCheck(t *testing.T) {
	h := NewHealthHandlers(fakePinger{err: errors.New("db down")}, fakePinger{}, fakePinger{}, "1.0.0")

	code, body := serveHealth(t, h, h.DetailedHealthCheck)

	assert.Equal(t, http.StatusPartialContent, code)
	assert.Equal(t, "degraded", body["overall_status"])
	checks := body["checks"].(map[string]interface{})
	database := checks["database"].(map[string]interface{})
	assert.Equal(t, "unhealthy", database["status"])
	assert.Equal(t, "db down", database["message"])
	assert.Greater(t, body["goroutines"].(float64), float64(0))
}
