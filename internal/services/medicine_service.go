package services

import (
	"context"
	"errors"
	"time"

	"medassist/internal/analytics"
	"medassist/internal/availability"
	"medassist/internal/caching"
	"medassist/internal/common"
	"medassist/internal/models"
	"medassist/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// CatalogOverview is the landing-page bundle of categories and trending medicines.
type CatalogOverview struct {
	Categories *models.CategoryList        `json:"categories"`
	Trending   []*models.MedicineAggregate `json:"trending"`
}

type MedicineService interface {
	GetMedicine(ctx context.Context, id uuid.UUID) (*models.MedicineDetail, error)
	Categories(ctx context.Context) (*models.CategoryList, error)
	Trending(ctx context.Context) ([]*models.MedicineAggregate, error)
	Overview(ctx context.Context) (*CatalogOverview, error)
	CreateMedicine(ctx context.Context, req *models.CreateMedicineRequest) (*models.Medicine, error)
	UploadImage(ctx context.Context, id uuid.UUID, upload *ImageUpload) (*models.Medicine, error)
}

type medicineService struct {
	medicineRepo  repositories.MedicineRepository
	offerRepo     repositories.OfferRepository
	analytics     *analytics.AnalyticsService
	cacheService  caching.CacheService
	minio         MinioService
	images        *ImageResolver
	bucket        string
	categoriesTTL time.Duration
	clock         availability.Clock
}

func NewMedicineService(
	medicineRepo repositories.MedicineRepository,
	offerRepo repositories.OfferRepository,
	analyticsService *analytics.AnalyticsService,
	cacheService caching.CacheService,
	minio MinioService,
	images *ImageResolver,
	bucket string,
	categoriesTTL time.Duration,
	clock availability.Clock,
) MedicineService {
	return &medicineService{
		medicineRepo:  medicineRepo,
		offerRepo:     offerRepo,
		analytics:     analyticsService,
		cacheService:  cacheService,
		minio:         minio,
		images:        images,
		bucket:        bucket,
		categoriesTTL: categoriesTTL,
		clock:         clock,
	}
}

func (s *medicineService) getMedicine(ctx context.Context, id uuid.UUID) (*models.Medicine, error) {
	medicine, err := s.medicineRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Medicine")
		}
		return nil, common.NewInternalError(err)
	}
	return medicine, nil
}

// GetMedicine returns the medicine and its current offers, cheapest first.
func (s *medicineService) GetMedicine(ctx context.Context, id uuid.UUID) (*models.MedicineDetail, error) {
	medicine, err := s.getMedicine(ctx, id)
	if err != nil {
		return nil, err
	}

	offers, err := s.offerRepo.FindAvailable(ctx, &models.OfferFilter{MedicineIDs: []uuid.UUID{id}})
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	offers = availability.FilterEligibleOffers(offers, availability.PriceRange{})
	offers = availability.FilterEligiblePharmacies(offers)
	availability.AnnotateOpen(offers, s.clock())
	availability.SortOffers(offers, false)

	s.images.Medicine(ctx, medicine)
	return &models.MedicineDetail{Medicine: medicine, Availability: offers}, nil
}

func (s *medicineService) Categories(ctx context.Context) (*models.CategoryList, error) {
	if s.cacheService != nil {
		cached, err := s.cacheService.GetCategories(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read categories from cache")
		} else if cached != nil {
			return cached, nil
		}
	}

	categories, err := s.medicineRepo.Categories(ctx)
	if err != nil {
		return nil, common.NewInternalError(err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.SetCategories(ctx, categories, s.categoriesTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache categories")
		}
	}
	return categories, nil
}

func (s *medicineService) Trending(ctx context.Context) ([]*models.MedicineAggregate, error) {
	trending, err := s.analytics.Trending(ctx)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return trending, nil
}

// Overview loads categories and trending concurrently.
func (s *medicineService) Overview(ctx context.Context) (*CatalogOverview, error) {
	overview := &CatalogOverview{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		categories, err := s.Categories(gctx)
		overview.Categories = categories
		return err
	})
	g.Go(func() error {
		trending, err := s.Trending(gctx)
		overview.Trending = trending
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *medicineService) CreateMedicine(ctx context.Context, req *models.CreateMedicineRequest) (*models.Medicine, error) {
	if err := req.Validate(); err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	medicine := req.ToMedicine()
	if err := s.medicineRepo.Create(ctx, medicine); err != nil {
		return nil, common.NewInternalError(err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.Delete(ctx, caching.CategoriesKey); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate categories cache")
		}
	}

	log.Info().Str("medicine_id", medicine.ID.String()).Str("name", medicine.Name).Msg("Medicine created")
	return medicine, nil
}

func (s *medicineService) UploadImage(ctx context.Context, id uuid.UUID, upload *ImageUpload) (*models.Medicine, error) {
	if s.minio == nil {
		return nil, common.NewInternalError(errors.New("image storage is not configured"))
	}
	medicine, err := s.getMedicine(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := upload.objectKey(id)
	if err != nil {
		return nil, common.NewValidationError("Only JPEG, PNG and WebP images are allowed")
	}
	if err := s.minio.UploadImage(ctx, s.bucket, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		return nil, common.NewInternalError(err)
	}
	if err := s.medicineRepo.SetImage(ctx, id, key); err != nil {
		return nil, common.NewInternalError(err)
	}

	medicine.ImageKey = &key
	s.images.Medicine(ctx, medicine)
	return medicine, nil
}
