package handlers

import (
	"net/http"

	"medassist/internal/models"
	"medassist/internal/services"

	"github.com/labstack/echo/v4"
)

// MedicineHandlers serves the medicine catalogue and availability search.
type MedicineHandlers struct {
	searchService   services.SearchService
	medicineService services.MedicineService
}

func NewMedicineHandlers(searchService services.SearchService, medicineService services.MedicineService) *MedicineHandlers {
	return &MedicineHandlers{
		searchService:   searchService,
		medicineService: medicineService,
	}
}

// Search handles GET /medicines/search
func (h *MedicineHandlers) Search(c echo.Context) error {
	query := &models.SearchQuery{
		Search:               c.QueryParam("search"),
		Category:             c.QueryParam("category"),
		TherapeuticClass:     c.QueryParam("therapeuticClass"),
		RequiresPrescription: queryBoolPtr(c, "requiresPrescription"),
		Page:                 queryInt(c, "page"),
		Limit:                queryInt(c, "limit"),
	}

	var err error
	if query.Latitude, err = queryFloatPtr(c, "latitude"); err != nil {
		return err
	}
	if query.Longitude, err = queryFloatPtr(c, "longitude"); err != nil {
		return err
	}
	if query.Radius, err = queryFloatPtr(c, "radius"); err != nil {
		return err
	}
	if query.MinPrice, err = queryIntPtr(c, "minPrice"); err != nil {
		return err
	}
	if query.MaxPrice, err = queryIntPtr(c, "maxPrice"); err != nil {
		return err
	}

	result, err := h.searchService.SearchMedicines(c.Request().Context(), query)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"success":     true,
		"count":       result.Count,
		"total":       result.Total,
		"pages":       result.Pages,
		"currentPage": result.CurrentPage,
		"results":     result.Results,
	}
	if result.Message != "" {
		body["message"] = result.Message
	}
	return c.JSON(http.StatusOK, body)
}

// GetMedicine handles GET /medicines/:id
func (h *MedicineHandlers) GetMedicine(c echo.Context) error {
	id, err := paramUUID(c, "id", "medicine")
	if err != nil {
		return err
	}

	detail, err := h.medicineService.GetMedicine(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    detail,
	})
}

// Categories handles GET /medicines/categories
func (h *MedicineHandlers) Categories(c echo.Context) error {
	list, err := h.medicineService.Categories(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    list,
	})
}

// Trending handles GET /medicines/trending
func (h *MedicineHandlers) Trending(c echo.Context) error {
	trending, err := h.medicineService.Trending(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    trending,
	})
}

// Overview handles GET /medicines/overview
func (h *MedicineHandlers) Overview(c echo.Context) error {
	overview, err := h.medicineService.Overview(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    overview,
	})
}

// CreateMedicine handles POST /medicines (pharmacy or admin)
func (h *MedicineHandlers) CreateMedicine(c echo.Context) error {
	var req models.CreateMedicineRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	medicine, err := h.medicineService.CreateMedicine(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    medicine,
	})
}

// UploadImage handles POST /medicines/:id/image (pharmacy or admin)
func (h *MedicineHandlers) UploadImage(c echo.Context) error {
	id, err := paramUUID(c, "id", "medicine")
	if err != nil {
		return err
	}

	upload, closeFn, err := imageUpload(c)
	if err != nil {
		return err
	}
	defer closeFn()

	medicine, err := h.medicineService.UploadImage(c.Request().Context(), id, upload)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    medicine,
	})
}
