package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	StatusAvailable    OfferStatus = "available"
	StatusLowStock     OfferStatus = "low_stock"
	StatusOutOfStock   OfferStatus = "out_of_stock"
	StatusDiscontinued OfferStatus = "discontinued"
)

const (
	DefaultMinQuantityAlert       = 10
	DefaultMaxQuantityPerCustomer = 100
)

// Offer is one pharmacy's stock record for one medicine. (PharmacyID, MedicineID) is unique.
type Offer struct {
	ID                     uuid.UUID           `json:"id" db:"id"`
	PharmacyID             uuid.UUID           `json:"pharmacy" db:"pharmacy_id"`
	MedicineID             uuid.UUID           `json:"medicineId" db:"medicine_id"`
	Quantity               int                 `json:"quantity" db:"quantity"`
	Price                  decimal.Decimal     `json:"price" db:"price"`
	DiscountPrice          decimal.NullDecimal `json:"discountPrice" db:"discount_price"`
	MinQuantityAlert       int                 `json:"minQuantityAlert" db:"min_quantity_alert"`
	MaxQuantityPerCustomer int                 `json:"maxQuantityPerCustomer" db:"max_quantity_per_customer"`
	Status                 OfferStatus         `json:"status" db:"status"`
	ExpiryDate             *time.Time          `json:"expiryDate,omitempty" db:"expiry_date"`
	BatchNumber            *string             `json:"batchNumber,omitempty" db:"batch_number"`
	LastUpdated            time.Time           `json:"lastUpdated" db:"last_updated"`
	CreatedAt              time.Time           `json:"createdAt" db:"created_at"`
}

// InventoryItem is an offer joined with its medicine summary.
type InventoryItem struct {
	*Offer
	Medicine MedicineSummary `json:"medicine"`
}

// InventoryFilter drives the per-pharmacy inventory listing.
type InventoryFilter struct {
	PharmacyID       uuid.UUID
	Status           string
	Search           string
	TherapeuticClass string
	Page             int
	Limit            int
}

// GeoBounds is a lat/lon box used to prefilter pharmacies before the exact
// great-circle check. When WrapsLongitude is true the longitude range is
// not constrained.
type GeoBounds struct {
	MinLatitude    float64
	MaxLatitude    float64
	MinLongitude   float64
	MaxLongitude   float64
	WrapsLongitude bool
}

// OfferFilter selects offers for a set of matched medicines.
type OfferFilter struct {
	MedicineIDs []uuid.UUID
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Bounds      *GeoBounds
}

// LowStockSummary counts a pharmacy's offers at or under their alert threshold.
type LowStockSummary struct {
	PharmacyID   uuid.UUID `json:"pharmacyId"`
	PharmacyName string    `json:"pharmacyName"`
	Phone        string    `json:"phone"`
	ItemCount    int       `json:"itemCount"`
}
