package services

import (
	"context"
	"math"
	"strings"
	"time"

	"medassist/internal/availability"
	"medassist/internal/common"
	"medassist/internal/config"
	"medassist/internal/models"
	"medassist/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const noMedicinesMessage = "No medicines found"

type SearchService interface {
	SearchMedicines(ctx context.Context, query *models.SearchQuery) (*models.SearchResult, error)
}

type searchService struct {
	medicineRepo repositories.MedicineRepository
	offerRepo    repositories.OfferRepository
	images       *ImageResolver
	clock        availability.Clock
	cfg          config.SearchConfig
}

func NewSearchService(medicineRepo repositories.MedicineRepository, offerRepo repositories.OfferRepository, images *ImageResolver, clock availability.Clock, cfg config.SearchConfig) SearchService {
	return &searchService{
		medicineRepo: medicineRepo,
		offerRepo:    offerRepo,
		images:       images,
		clock:        clock,
		cfg:          cfg,
	}
}

// SearchMedicines matches medicines, gathers their eligible offers and
// returns one page of medicine groups.
func (s *searchService) SearchMedicines(ctx context.Context, query *models.SearchQuery) (*models.SearchResult, error) {
	if err := s.normalize(query); err != nil {
		return nil, err
	}
	start := time.Now()

	medicines, err := s.medicineRepo.Search(ctx, &models.MedicineFilter{
		Text:                 query.Search,
		Category:             query.Category,
		TherapeuticClass:     query.TherapeuticClass,
		RequiresPrescription: query.RequiresPrescription,
	})
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	if len(medicines) == 0 {
		return &models.SearchResult{
			PageInfo: models.PageInfo{CurrentPage: query.Page},
			Message:  noMedicinesMessage,
			Results:  []*models.SearchResultGroup{},
		}, nil
	}

	ids := make([]uuid.UUID, len(medicines))
	for i, m := range medicines {
		ids[i] = m.ID
	}

	prices := availability.NewPriceRange(query.MinPrice, query.MaxPrice)
	filter := &models.OfferFilter{MedicineIDs: ids, MinPrice: prices.Min, MaxPrice: prices.Max}

	var origin availability.Point
	if query.GeoAware() {
		origin = availability.Point{Latitude: *query.Latitude, Longitude: *query.Longitude}
		filter.Bounds = availability.BoundingBox(origin, *query.Radius)
	}

	offers, err := s.offerRepo.FindAvailable(ctx, filter)
	if err != nil {
		return nil, common.NewInternalError(err)
	}

	offers = availability.FilterEligibleOffers(offers, prices)
	offers = availability.FilterEligiblePharmacies(offers)
	if query.GeoAware() {
		offers = availability.FilterWithinRadius(offers, origin, *query.Radius)
	}
	availability.AnnotateOpen(offers, s.clock())
	availability.SortOffers(offers, query.GeoAware())

	groups := availability.GroupByMedicine(offers, medicines)
	page, info := availability.Paginate(groups, query.Page, query.Limit)
	for _, g := range page {
		s.images.Medicine(ctx, g.Medicine)
	}

	log.Debug().
		Str("search", query.Search).
		Int("medicines", len(medicines)).
		Int("offers", len(offers)).
		Int("groups", info.Total).
		Dur("took", time.Since(start)).
		Msg("Medicine search completed")

	return &models.SearchResult{PageInfo: info, Results: page}, nil
}

func (s *searchService) normalize(q *models.SearchQuery) error {
	q.Search = strings.TrimSpace(q.Search)
	if q.Search == "" {
		return common.NewValidationError("Search term is required")
	}
	if (q.Latitude == nil) != (q.Longitude == nil) {
		return common.NewValidationError("Both latitude and longitude are required for location search")
	}
	if q.GeoAware() && !availability.ValidCoordinates(*q.Latitude, *q.Longitude) {
		return common.NewValidationError("Invalid coordinates")
	}
	if q.Radius == nil {
		radius := s.cfg.DefaultRadius
		q.Radius = &radius
	} else if r := *q.Radius; math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return common.NewValidationError("Radius must be a non-negative number of meters")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return common.NewValidationError("minPrice cannot be greater than maxPrice")
	}
	q.Page, q.Limit = common.NormalizePage(q.Page, q.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)
	return nil
}
