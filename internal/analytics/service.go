package analytics

import (
	"context"
	"time"

	"medassist/internal/caching"
	"medassist/internal/models"
	"medassist/internal/repositories"

	"github.com/rs/zerolog/log"
)

// TrendingLimit is the number of medicines in the trending list.
const TrendingLimit = 10

// MedicineDecorator fills derived fields such as image URLs.
type MedicineDecorator func(ctx context.Context, m *models.Medicine)

// AnalyticsService computes and caches the trending aggregate.
type AnalyticsService struct {
	offerRepo    repositories.OfferRepository
	cacheService caching.CacheService
	ttl          time.Duration
	decorate     MedicineDecorator
}

func NewAnalyticsService(offerRepo repositories.OfferRepository, cacheService caching.CacheService, ttl time.Duration, decorate MedicineDecorator) *AnalyticsService {
	return &AnalyticsService{
		offerRepo:    offerRepo,
		cacheService: cacheService,
		ttl:          ttl,
		decorate:     decorate,
	}
}

// Trending serves the cached aggregate, computing it on a miss. Cache
// failures fall through to the database.
func (a *AnalyticsService) Trending(ctx context.Context) ([]*models.MedicineAggregate, error) {
	if a.cacheService != nil {
		cached, err := a.cacheService.GetTrending(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read trending from cache")
		} else if cached != nil {
			return cached, nil
		}
	}
	return a.RefreshTrending(ctx)
}

// RefreshTrending recomputes the aggregate and overwrites the cache.
func (a *AnalyticsService) RefreshTrending(ctx context.Context) ([]*models.MedicineAggregate, error) {
	start := time.Now()
	trending, err := a.offerRepo.Trending(ctx, TrendingLimit)
	if err != nil {
		return nil, err
	}

	if a.decorate != nil {
		for _, t := range trending {
			a.decorate(ctx, t.Medicine)
		}
	}

	if a.cacheService != nil {
		if err := a.cacheService.SetTrending(ctx, trending, a.ttl); err != nil {
			log.Warn().Err(err).Msg("Failed to cache trending")
		}
	}

	log.Debug().Int("count", len(trending)).Dur("took", time.Since(start)).Msg("Trending refreshed")
	return trending, nil
}
