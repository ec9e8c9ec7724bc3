package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medassist/internal/common"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestMountVersion_ActiveVersion(t *testing.T) {
	e := echo.New()
	g := MountVersion(e, APIVersion{Name: "v1"})
	g.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Empty(t, rec.Header().Get("X-API-Deprecated"))
	assert.Empty(t, rec.Header().Get("Warning"))
}

func TestMountVersion_Deprecated(t *testing.T) {
	sunset := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	e := echo.New()
	g := MountVersion(e, APIVersion{Name: "v0", SunsetDate: &sunset})
	g.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v0/ping", nil))

	assert.Equal(t, "true", rec.Header().Get("X-API-Deprecated"))
	assert.Equal(t, "2025-06-30T00:00:00Z", rec.Header().Get("X-API-Sunset"))
	assert.Equal(t, `299 medassist "API v0 is deprecated and will be removed on 2025-06-30"`, rec.Header().Get("Warning"))
}

func TestAuditWrites_PassesThroughErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler
	e.Use(AuditWrites())
	e.GET("/read", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.POST("/write", func(c echo.Context) error { return common.NewNotFoundError("Pharmacy") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/read", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/write", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
