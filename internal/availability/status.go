package availability

import "medassist/internal/models"

// DeriveStatus computes an offer's stock status at the write boundary.
//
// An offer previously marked discontinued stays discontinued whatever its
// quantity; withdrawing the mark is an explicit status change, not a
// side effect of restocking.
func DeriveStatus(quantity, minQuantityAlert int, previous models.OfferStatus) models.OfferStatus {
	if previous == models.StatusDiscontinued {
		return models.StatusDiscontinued
	}

	switch {
	case quantity <= 0:
		return models.StatusOutOfStock
	case quantity <= minQuantityAlert:
		return models.StatusLowStock
	default:
		return models.StatusAvailable
	}
}
