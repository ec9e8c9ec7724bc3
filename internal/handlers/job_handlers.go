package handlers

import (
	"net/http"

	"medassist/internal/common"
	"medassist/internal/jobs"

	"github.com/labstack/echo/v4"
)

// JobStatusProvider reports the scheduled background jobs.
type JobStatusProvider interface {
	GetJobStatus() map[string]interface{}
}

// JobHandlers exposes the background jobs to administrators.
type JobHandlers struct {
	scheduler        JobStatusProvider
	analyticsRefresh *jobs.AnalyticsRefreshService
	lowStockAlerts   *jobs.LowStockAlertService
}

func NewJobHandlers(scheduler JobStatusProvider, analyticsRefresh *jobs.AnalyticsRefreshService, lowStockAlerts *jobs.LowStockAlertService) *JobHandlers {
	return &JobHandlers{
		scheduler:        scheduler,
		analyticsRefresh: analyticsRefresh,
		lowStockAlerts:   lowStockAlerts,
	}
}

// Status handles GET /admin/jobs
func (h *JobHandlers) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.scheduler.GetJobStatus(),
	})
}

// RefreshTrending handles POST /admin/jobs/trending-refresh
func (h *JobHandlers) RefreshTrending(c echo.Context) error {
	result, err := h.analyticsRefresh.ScheduledTrendingRefresh(c.Request().Context())
	if err != nil {
		return common.NewInternalMessage("Trending refresh failed", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"medicines":     result.Medicines,
		"lastRefreshAt": result.LastRefreshAt,
	})
}

// ScanLowStock handles POST /admin/jobs/low-stock-scan
func (h *JobHandlers) ScanLowStock(c echo.Context) error {
	notified, err := h.lowStockAlerts.ScanAndNotify(c.Request().Context())
	if err != nil {
		return common.NewInternalMessage("Low stock scan failed", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"notified": notified,
	})
}
