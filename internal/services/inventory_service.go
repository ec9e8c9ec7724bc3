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
	"github.com/shopspring/decimal"
)

type InventoryService interface {
	UpsertOffer(ctx context.Context, caller models.Caller, req *models.UpsertOfferRequest) (*models.Offer, bool, error)
	ListOffers(ctx context.Context, caller models.Caller, filter *models.InventoryFilter) ([]*models.InventoryItem, models.PageInfo, error)
	DeleteOffer(ctx context.Context, caller models.Caller, id uuid.UUID) error
	LowStockAlerts(ctx context.Context, caller models.Caller, pharmacyID uuid.UUID) ([]*models.InventoryItem, error)
}

type inventoryService struct {
	offerRepo    repositories.OfferRepository
	pharmacyRepo repositories.PharmacyRepository
	medicineRepo repositories.MedicineRepository
	cfg          config.SearchConfig
}

func NewInventoryService(offerRepo repositories.OfferRepository, pharmacyRepo repositories.PharmacyRepository, medicineRepo repositories.MedicineRepository, cfg config.SearchConfig) InventoryService {
	return &inventoryService{
		offerRepo:    offerRepo,
		pharmacyRepo: pharmacyRepo,
		medicineRepo: medicineRepo,
		cfg:          cfg,
	}
}

// checkOwnership lets admins act on any pharmacy and pharmacy users only on their own.
func (s *inventoryService) checkOwnership(ctx context.Context, caller models.Caller, pharmacyID uuid.UUID) error {
	pharmacy, err := s.pharmacyRepo.GetByID(ctx, pharmacyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError("Pharmacy")
		}
		return common.NewInternalError(err)
	}
	if caller.IsAdmin() {
		return nil
	}
	if pharmacy.OwnerID != caller.UserID {
		return common.NewForbiddenError("Not authorized to manage this pharmacy's inventory")
	}
	return nil
}

// UpsertOffer creates or replaces the caller's stock record for a medicine
// and reports whether it was newly created.
func (s *inventoryService) UpsertOffer(ctx context.Context, caller models.Caller, req *models.UpsertOfferRequest) (*models.Offer, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, common.NewValidationError(err.Error())
	}
	pharmacyID := uuid.MustParse(req.PharmacyID)
	medicineID := uuid.MustParse(req.MedicineID)

	if err := s.checkOwnership(ctx, caller, pharmacyID); err != nil {
		return nil, false, err
	}
	if _, err := s.medicineRepo.GetByID(ctx, medicineID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, common.NewNotFoundError("Medicine")
		}
		return nil, false, common.NewInternalError(err)
	}

	existing, err := s.offerRepo.GetByPharmacyAndMedicine(ctx, pharmacyID, medicineID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, common.NewInternalError(err)
	}
	created := existing == nil

	offer := &models.Offer{
		ID:                     uuid.New(),
		PharmacyID:             pharmacyID,
		MedicineID:             medicineID,
		Quantity:               req.Quantity,
		Price:                  req.Price,
		MinQuantityAlert:       models.DefaultMinQuantityAlert,
		MaxQuantityPerCustomer: models.DefaultMaxQuantityPerCustomer,
		ExpiryDate:             req.ExpiryDate,
		BatchNumber:            req.BatchNumber,
	}
	var previous models.OfferStatus
	if existing != nil {
		offer.ID = existing.ID
		offer.MinQuantityAlert = existing.MinQuantityAlert
		offer.MaxQuantityPerCustomer = existing.MaxQuantityPerCustomer
		previous = existing.Status
	}
	if req.DiscountPrice != nil {
		offer.DiscountPrice = decimal.NewNullDecimal(*req.DiscountPrice)
	}
	if req.MinQuantityAlert != nil {
		offer.MinQuantityAlert = *req.MinQuantityAlert
	}
	if req.MaxQuantityPerCustomer != nil && *req.MaxQuantityPerCustomer > 0 {
		offer.MaxQuantityPerCustomer = *req.MaxQuantityPerCustomer
	}

	if req.Discontinued != nil {
		if *req.Discontinued {
			previous = models.StatusDiscontinued
		} else {
			previous = ""
		}
	}
	offer.Status = availability.DeriveStatus(offer.Quantity, offer.MinQuantityAlert, previous)

	if err := s.offerRepo.Upsert(ctx, offer); err != nil {
		return nil, false, common.NewInternalError(err)
	}

	log.Info().
		Str("offer_id", offer.ID.String()).
		Str("pharmacy_id", pharmacyID.String()).
		Str("medicine_id", medicineID.String()).
		Int("quantity", offer.Quantity).
		Str("status", string(offer.Status)).
		Msg("Inventory updated")
	return offer, created, nil
}

func (s *inventoryService) ListOffers(ctx context.Context, caller models.Caller, filter *models.InventoryFilter) ([]*models.InventoryItem, models.PageInfo, error) {
	if filter.PharmacyID == uuid.Nil {
		return nil, models.PageInfo{}, common.NewValidationError("pharmacyId is required")
	}
	if err := validateStatusFilter(filter.Status); err != nil {
		return nil, models.PageInfo{}, err
	}
	if err := s.checkOwnership(ctx, caller, filter.PharmacyID); err != nil {
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

func (s *inventoryService) DeleteOffer(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError("Inventory item")
		}
		return common.NewInternalError(err)
	}
	if err := s.checkOwnership(ctx, caller, offer.PharmacyID); err != nil {
		return err
	}
	if err := s.offerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError("Inventory item")
		}
		return common.NewInternalError(err)
	}
	log.Info().Str("offer_id", id.String()).Str("pharmacy_id", offer.PharmacyID.String()).Msg("Inventory item deleted")
	return nil
}

func (s *inventoryService) LowStockAlerts(ctx context.Context, caller models.Caller, pharmacyID uuid.UUID) ([]*models.InventoryItem, error) {
	if pharmacyID == uuid.Nil {
		return nil, common.NewValidationError("pharmacyId is required")
	}
	if err := s.checkOwnership(ctx, caller, pharmacyID); err != nil {
		return nil, err
	}
	items, err := s.offerRepo.LowStock(ctx, pharmacyID)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return items, nil
}
