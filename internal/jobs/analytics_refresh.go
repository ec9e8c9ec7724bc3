package jobs

import (
	"context"
	"time"

	"medassist/internal/models"

	"github.com/rs/zerolog/log"
)

// TrendingRefresher recomputes the cached trending list.
type TrendingRefresher interface {
	RefreshTrending(ctx context.Context) ([]*models.MedicineAggregate, error)
}

type AnalyticsRefreshService struct {
	analytics TrendingRefresher
}

// AnalyticsRefreshResult summarises one refresh run.
type AnalyticsRefreshResult struct {
	Medicines     int
	LastRefreshAt time.Time
}

func NewAnalyticsRefreshService(analytics TrendingRefresher) *AnalyticsRefreshService {
	return &AnalyticsRefreshService{analytics: analytics}
}

// ScheduledTrendingRefresh recomputes and caches the trending list.
func (a *AnalyticsRefreshService) ScheduledTrendingRefresh(ctx context.Context) (*AnalyticsRefreshResult, error) {
	start := time.Now()

	trending, err := a.analytics.RefreshTrending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Trending refresh failed")
		return nil, err
	}

	result := &AnalyticsRefreshResult{Medicines: len(trending), LastRefreshAt: time.Now()}
	log.Info().Int("medicines", result.Medicines).Dur("took", time.Since(start)).Msg("Trending refresh completed")
	return result, nil
}
