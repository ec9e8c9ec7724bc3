package services

import (
	"context"
	"errors"

	"medassist/internal/availability"
	"medassist/internal/common"
	"medassist/internal/config"
	"medassist/internal/models"
	"medassist/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const topMedicinesLimit = 10

type PharmacyService interface {
	Nearby(ctx context.Context, filter *models.NearbyFilter) ([]*models.AnnotatedPharmacy, error)
	GetPharmacy(ctx context.Context, id uuid.UUID) (*models.PharmacyDetail, error)
	CreatePharmacy(ctx context.Context, caller models.Caller, req *models.CreatePharmacyRequest) (*models.Pharmacy, error)
	UpdatePharmacy(ctx context.Context, caller models.Caller, id uuid.UUID, req *models.UpdatePharmacyRequest) (*models.Pharmacy, error)
	Inventory(ctx context.Context, filter *models.InventoryFilter) ([]*models.InventoryItem, models.PageInfo, error)
	UploadImage(ctx context.Context, caller models.Caller, id uuid.UUID, upload *ImageUpload) (*models.Pharmacy, error)
}

type pharmacyService struct {
	pharmacyRepo repositories.PharmacyRepository
	offerRepo    repositories.OfferRepository
	minio        MinioService
	images       *ImageResolver
	bucket       string
	clock        availability.Clock
	cfg          config.SearchConfig
}

func NewPharmacyService(
	pharmacyRepo repositories.PharmacyRepository,
	offerRepo repositories.OfferRepository,
	minio MinioService,
	images *ImageResolver,
	bucket string,
	clock availability.Clock,
	cfg config.SearchConfig,
) PharmacyService {
	return &pharmacyService{
		pharmacyRepo: pharmacyRepo,
		offerRepo:    offerRepo,
		minio:        minio,
		images:       images,
		bucket:       bucket,
		clock:        clock,
		cfg:          cfg,
	}
}

// Nearby lists eligible pharmacies within the radius, nearest first.
func (s *pharmacyService) Nearby(ctx context.Context, filter *models.NearbyFilter) ([]*models.AnnotatedPharmacy, error) {
	if !availability.ValidCoordinates(filter.Latitude, filter.Longitude) {
		return nil, common.NewValidationError("Invalid coordinates")
	}
	if filter.Radius <= 0 {
		filter.Radius = s.cfg.DefaultNearbyRadius
	}
	filter.Page, filter.Limit = common.NormalizePage(filter.Page, filter.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)

	origin := availability.Point{Latitude: filter.Latitude, Longitude: filter.Longitude}
	candidates, err := s.pharmacyRepo.FindNearby(ctx, filter, availability.BoundingBox(origin, filter.Radius))
	if err != nil {
		return nil, common.NewInternalError(err)
	}

	nearby := availability.FilterPharmaciesWithinRadius(candidates, origin, filter.Radius)
	page, _ := availability.Paginate(nearby, filter.Page, filter.Limit)
	availability.AnnotatePharmaciesOpen(page, s.clock())
	for _, p := range page {
		s.images.Pharmacy(ctx, p.Pharmacy)
	}
	return page, nil
}

func (s *pharmacyService) getPharmacy(ctx context.Context, id uuid.UUID) (*models.Pharmacy, error) {
	pharmacy, err := s.pharmacyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Pharmacy")
		}
		return nil, common.NewInternalError(err)
	}
	return pharmacy, nil
}

// authorize loads the pharmacy and checks the caller owns it or is an admin.
func (s *pharmacyService) authorize(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Pharmacy, error) {
	pharmacy, err := s.getPharmacy(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && pharmacy.OwnerID != caller.UserID {
		return nil, common.NewForbiddenError("Not authorized to modify this pharmacy")
	}
	return pharmacy, nil
}

func (s *pharmacyService) GetPharmacy(ctx context.Context, id uuid.UUID) (*models.PharmacyDetail, error) {
	pharmacy, err := s.getPharmacy(ctx, id)
	if err != nil {
		return nil, err
	}

	top, err := s.offerRepo.TopAvailable(ctx, id, topMedicinesLimit)
	if err != nil {
		return nil, common.NewInternalError(err)
	}

	s.images.Pharmacy(ctx, pharmacy)
	return &models.PharmacyDetail{
		Pharmacy:        pharmacy,
		IsCurrentlyOpen: availability.IsOpen(pharmacy.OperatingHours, pharmacy.Is24Hours, s.clock()),
		TopMedicines:    top,
	}, nil
}

func (s *pharmacyService) CreatePharmacy(ctx context.Context, caller models.Caller, req *models.CreatePharmacyRequest) (*models.Pharmacy, error) {
	if err := req.Validate(); err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	exists, err := s.pharmacyRepo.LicenseExists(ctx, req.License)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	if exists {
		return nil, common.NewConflictError("Pharmacy with this license already exists")
	}

	pharmacy := req.ToPharmacy(caller.UserID)
	if err := s.pharmacyRepo.Create(ctx, pharmacy); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repositories.ErrLicenseExists) {
			return nil, common.NewConflictError("Pharmacy with this license already exists")
		}
		return nil, common.NewInternalError(err)
	}

	log.Info().
		Str("pharmacy_id", pharmacy.ID.String()).
		Str("owner_id", caller.UserID.String()).
		Msg("Pharmacy registered")
	pharmacy.Images = []string{}
	return pharmacy, nil
}

func (s *pharmacyService) UpdatePharmacy(ctx context.Context, caller models.Caller, id uuid.UUID, req *models.UpdatePharmacyRequest) (*models.Pharmacy, error) {
	if err := req.Validate(); err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	pharmacy, err := s.authorize(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if req.TouchesModeration() && !caller.IsAdmin() {
		return nil, common.NewForbiddenError("Only administrators can change verification or activation")
	}

	req.ApplyTo(pharmacy)
	if err := s.pharmacyRepo.Update(ctx, pharmacy); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Pharmacy")
		}
		return nil, common.NewInternalError(err)
	}

	s.images.Pharmacy(ctx, pharmacy)
	return pharmacy, nil
}

// Inventory pages a pharmacy's stock list.
func (s *pharmacyService) Inventory(ctx context.Context, filter *models.InventoryFilter) ([]*models.InventoryItem, models.PageInfo, error) {
	if err := validateStatusFilter(filter.Status); err != nil {
		return nil, models.PageInfo{}, err
	}
	if _, err := s.getPharmacy(ctx, filter.PharmacyID); err != nil {
		return nil, models.PageInfo{}, err
	}
	filter.Page, filter.Limit = common.NormalizePage(filter.Page, filter.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)

	items, total, err := s.offerRepo.ListByPharmacy(ctx, filter)
	if err != nil {
		return nil, models.PageInfo{}, common.NewInternalError(err)
	}

	return items, models.PageInfo{
		Count:       len(items),
		Total:       total,
		Pages:       (total + filter.Limit - 1) / filter.Limit,
		CurrentPage: filter.Page,
	}, nil
}

func (s *pharmacyService) UploadImage(ctx context.Context, caller models.Caller, id uuid.UUID, upload *ImageUpload) (*models.Pharmacy, error) {
	if s.minio == nil {
		return nil, common.NewInternalError(errors.New("image storage is not configured"))
	}
	pharmacy, err := s.authorize(ctx, caller, id)
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
	if err := s.pharmacyRepo.AddImage(ctx, id, key); err != nil {
		return nil, common.NewInternalError(err)
	}

	pharmacy.ImageKeys = append(pharmacy.ImageKeys, key)
	s.images.Pharmacy(ctx, pharmacy)
	return pharmacy, nil
}

func validateStatusFilter(status string) error {
	switch models.OfferStatus(status) {
	case "", "all", models.StatusAvailable, models.StatusLowStock, models.StatusOutOfStock, models.StatusDiscontinued:
		return nil
	}
	return common.NewValidationError("Invalid status filter")
}
