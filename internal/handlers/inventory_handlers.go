package handlers

import (
	"net/http"

	"medassist/internal/common"
	"medassist/internal/models"
	"medassist/internal/services"

	"github.com/labstack/echo/v4"
)

// InventoryHandlers handles the pharmacy-side offer management endpoints
type InventoryHandlers struct {
	inventoryService services.InventoryService
}

// NewInventoryHandlers creates a new inventory handlers instance
func NewInventoryHandlers(inventoryService services.InventoryService) *InventoryHandlers {
	return &InventoryHandlers{inventoryService: inventoryService}
}

// ListInventory handles GET /inventory?pharmacyId=...
func (h *InventoryHandlers) ListInventory(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	pharmacyID, err := common.ValidateUUID(c.QueryParam("pharmacyId"), "pharmacyId")
	if err != nil {
		return err
	}

	filter := &models.InventoryFilter{
		PharmacyID:       pharmacyID,
		Status:           c.QueryParam("status"),
		Search:           c.QueryParam("search"),
		TherapeuticClass: c.QueryParam("therapeuticClass"),
		Page:             queryInt(c, "page"),
		Limit:            queryInt(c, "limit"),
	}

	items, page, err := h.inventoryService.ListOffers(c.Request().Context(), caller, filter)
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

// UpsertInventory handles POST /inventory, creating or replacing the offer
// for a pharmacy and medicine pair.
func (h *InventoryHandlers) UpsertInventory(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req models.UpsertOfferRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	offer, created, err := h.inventoryService.UpsertOffer(c.Request().Context(), caller, &req)
	if err != nil {
		return err
	}

	status := http.StatusOK
	message := "Inventory updated"
	if created {
		status = http.StatusCreated
		message = "Inventory item added"
	}
	return c.JSON(status, map[string]interface{}{
		"success": true,
		"message": message,
		"data":    offer,
	})
}

// LowStockAlerts handles GET /inventory/alerts?pharmacyId=...
func (h *InventoryHandlers) LowStockAlerts(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	pharmacyID, err := common.ValidateUUID(c.QueryParam("pharmacyId"), "pharmacyId")
	if err != nil {
		return err
	}

	items, err := h.inventoryService.LowStockAlerts(c.Request().Context(), caller, pharmacyID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(items),
		"alerts":  items,
	})
}

// DeleteInventory handles DELETE /inventory/:id
func (h *InventoryHandlers) DeleteInventory(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id", "inventory item")
	if err != nil {
		return err
	}

	if err := h.inventoryService.DeleteOffer(c.Request().Context(), caller, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Inventory item removed",
	})
}
