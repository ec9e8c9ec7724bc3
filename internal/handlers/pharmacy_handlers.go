package handlers

import (
	"net/http"

	"medassist/internal/common"
	"medassist/internal/models"
	"medassist/internal/services"

	"github.com/labstack/echo/v4"
)

// PharmacyHandlers serves pharmacy discovery and pharmacy management.
type PharmacyHandlers struct {
	pharmacyService services.PharmacyService
}

func NewPharmacyHandlers(pharmacyService services.PharmacyService) *PharmacyHandlers {
	return &PharmacyHandlers{pharmacyService: pharmacyService}
}

// Nearby handles GET /pharmacies/nearby
func (h *PharmacyHandlers) Nearby(c echo.Context) error {
	lat, err := queryFloatPtr(c, "latitude")
	if err != nil {
		return err
	}
	lon, err := queryFloatPtr(c, "longitude")
	if err != nil {
		return err
	}
	if lat == nil || lon == nil {
		return common.NewValidationError("Please provide latitude and longitude")
	}

	filter := &models.NearbyFilter{
		Latitude:   *lat,
		Longitude:  *lon,
		Specialty:  c.QueryParam("specialty"),
		Only24Hour: c.QueryParam("is24Hours") == "true",
		Services:   common.SplitCSV(c.QueryParam("services")),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	}
	radius, err := queryFloatPtr(c, "radius")
	if err != nil {
		return err
	}
	if radius != nil {
		filter.Radius = *radius
	}

	pharmacies, err := h.pharmacyService.Nearby(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"count":      len(pharmacies),
		"pharmacies": pharmacies,
	})
}

// GetPharmacy handles GET /pharmacies/:id
func (h *PharmacyHandlers) GetPharmacy(c echo.Context) error {
	id, err := paramUUID(c, "id", "pharmacy")
	if err != nil {
		return err
	}

	detail, err := h.pharmacyService.GetPharmacy(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    detail,
	})
}

// Inventory handles GET /pharmacies/:id/inventory
func (h *PharmacyHandlers) Inventory(c echo.Context) error {
	id, err := paramUUID(c, "id", "pharmacy")
	if err != nil {
		return err
	}

	filter := &models.InventoryFilter{
		PharmacyID:       id,
		Status:           c.QueryParam("status"),
		Search:           c.QueryParam("search"),
		TherapeuticClass: c.QueryParam("therapeuticClass"),
		Page:             queryInt(c, "page"),
		Limit:            queryInt(c, "limit"),
	}

	items, page, err := h.pharmacyService.Inventory(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"count":       page.Count,
		"total":       page.Total,
		"pages":       page.Pages,
		"currentPage": page.CurrentPage,
		"inventory":   items,
	})
}

// CreatePharmacy handles POST /pharmacies (pharmacy or admin role)
func (h *PharmacyHandlers) CreatePharmacy(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req models.CreatePharmacyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pharmacy, err := h.pharmacyService.CreatePharmacy(c.Request().Context(), caller, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    pharmacy,
	})
}

// UpdatePharmacy handles PUT /pharmacies/:id
func (h *PharmacyHandlers) UpdatePharmacy(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", "pharmacy")
	if err != nil {
		return err
	}

	var req models.UpdatePharmacyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pharmacy, err := h.pharmacyService.UpdatePharmacy(c.Request().Context(), caller, id, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    pharmacy,
	})
}

// UploadImage handles POST /pharmacies/:id/images
func (h *PharmacyHandlers) UploadImage(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", "pharmacy")
	if err != nil {
		return err
	}

	upload, closeFn, err := imageUpload(c)
	if err != nil {
		return err
	}
	defer closeFn()

	pharmacy, err := h.pharmacyService.UploadImage(c.Request().Context(), caller, id, upload)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    pharmacy,
	})
}
