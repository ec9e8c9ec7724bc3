package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SearchQuery is a medicine availability search request.
type SearchQuery struct {
	Search               string
	Latitude             *float64
	Longitude            *float64
	Radius               *float64
	Category             string
	TherapeuticClass     string
	RequiresPrescription *bool
	MinPrice             *int
	MaxPrice             *int
	Page                 int
	Limit                int
}

// GeoAware reports whether both coordinates were supplied.
func (q *SearchQuery) GeoAware() bool {
	return q.Latitude != nil && q.Longitude != nil
}

// AnnotatedOffer is an offer as it appears in a search result.
type AnnotatedOffer struct {
	ID            uuid.UUID           `json:"id"`
	MedicineID    uuid.UUID           `json:"-"`
	Pharmacy      PharmacyView        `json:"pharmacy"`
	Quantity      int                 `json:"quantity"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice"`
	Status        OfferStatus         `json:"status"`
	Distance      *float64            `json:"distance,omitempty"`
}

// SearchResultGroup is every matching offer for one medicine.
type SearchResultGroup struct {
	Medicine     *Medicine         `json:"medicine"`
	Availability []*AnnotatedOffer `json:"availability"`
}

// PageInfo describes one page of a paginated list.
type PageInfo struct {
	Count       int `json:"count"`
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"currentPage"`
}

// SearchResult is a page of grouped medicines.
type SearchResult struct {
	PageInfo
	Message string               `json:"message,omitempty"`
	Results []*SearchResultGroup `json:"results"`
}

// MedicineDetail is a medicine with all its current offers.
type MedicineDetail struct {
	*Medicine
	Availability []*AnnotatedOffer `json:"availability"`
}
