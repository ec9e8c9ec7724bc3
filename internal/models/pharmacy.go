package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var PharmacyServices = []string{
	"prescription", "consultation", "delivery", "insurance",
	"vaccination", "blood_pressure_check", "diabetes_testing",
}

var PharmacySpecialties = []string{
	"oncology", "diabetes", "hypertension", "pediatrics", "geriatrics", "general",
}

// Location is a GeoJSON point. Coordinates are [longitude, latitude].
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func NewPoint(longitude, latitude float64) Location {
	return Location{Type: "Point", Coordinates: [2]float64{longitude, latitude}}
}

func (l Location) Longitude() float64 { return l.Coordinates[0] }
func (l Location) Latitude() float64  { return l.Coordinates[1] }

// DayHours is one weekday entry of an operating-hours schedule. Times are 24-hour "HH:MM".
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// OperatingHours maps each weekday to its opening window. A nil day is
// treated as closed.
type OperatingHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// Day returns the entry for a weekday, nil when the schedule has none.
func (h OperatingHours) Day(d time.Weekday) *DayHours {
	switch d {
	case time.Sunday:
		return h.Sunday
	case time.Monday:
		return h.Monday
	case time.Tuesday:
		return h.Tuesday
	case time.Wednesday:
		return h.Wednesday
	case time.Thursday:
		return h.Thursday
	case time.Friday:
		return h.Friday
	case time.Saturday:
		return h.Saturday
	}
	return nil
}

// DefaultOperatingHours is applied to pharmacies registered without a schedule.
func DefaultOperatingHours() OperatingHours {
	weekday := func() *DayHours { return &DayHours{Open: "08:00", Close: "18:00"} }
	return OperatingHours{
		Monday:    weekday(),
		Tuesday:   weekday(),
		Wednesday: weekday(),
		Thursday:  weekday(),
		Friday:    weekday(),
		Saturday:  &DayHours{Open: "09:00", Close: "17:00"},
		Sunday:    &DayHours{Open: "10:00", Close: "16:00"},
	}
}

type Pharmacy struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	OwnerID        uuid.UUID       `json:"owner" db:"owner_id"`
	Name           string          `json:"name" db:"name"`
	License        string          `json:"license" db:"license"`
	Location       Location        `json:"location" db:"-"`
	Address        string          `json:"address" db:"address"`
	County         string          `json:"county" db:"county"`
	Town           string          `json:"town" db:"town"`
	Phone          string          `json:"phone" db:"phone"`
	Email          *string         `json:"email,omitempty" db:"email"`
	Website        *string         `json:"website,omitempty" db:"website"`
	OperatingHours OperatingHours  `json:"operatingHours" db:"operating_hours"`
	Is24Hours      bool            `json:"is24Hours" db:"is_24_hours"`
	Services       []string        `json:"services" db:"services"`
	Specialties    []string        `json:"specialties" db:"specialties"`
	Rating         float64         `json:"rating" db:"rating"`
	TotalReviews   int             `json:"totalReviews" db:"total_reviews"`
	DeliveryRadius float64         `json:"deliveryRadius" db:"delivery_radius"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee" db:"delivery_fee"`
	ImageKeys      []string        `json:"-" db:"images"`
	Images         []string        `json:"images" db:"-"`
	IsActive       bool            `json:"isActive" db:"is_active"`
	IsVerified     bool            `json:"isVerified" db:"is_verified"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// Eligible reports whether the pharmacy may appear in search results.
func (p *Pharmacy) Eligible() bool {
	return p.IsActive && p.IsVerified
}

// PharmacySummary is the pharmacy projection joined onto every offer.
type PharmacySummary struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	Phone          string         `json:"phone"`
	Location       Location       `json:"location"`
	Rating         float64        `json:"rating"`
	OperatingHours OperatingHours `json:"operatingHours"`
	Services       []string       `json:"services"`
	Is24Hours      bool           `json:"is24Hours"`
	IsActive       bool           `json:"-"`
	IsVerified     bool           `json:"-"`
}

// PharmacyView is the summary plus its computed open state.
type PharmacyView struct {
	PharmacySummary
	IsCurrentlyOpen bool `json:"isCurrentlyOpen"`
}

// AnnotatedPharmacy is a proximity query result.
type AnnotatedPharmacy struct {
	*Pharmacy
	Distance        *float64 `json:"distance,omitempty"`
	IsCurrentlyOpen bool     `json:"isCurrentlyOpen"`
}

// NearbyFilter holds the pharmacy proximity criteria.
type NearbyFilter struct {
	Latitude   float64
	Longitude  float64
	Radius     float64
	Specialty  string
	Only24Hour bool
	Services   []string
	Page       int
	Limit      int
}

// PharmacyDetail is a single pharmacy with its best-stocked offers.
type PharmacyDetail struct {
	*Pharmacy
	IsCurrentlyOpen bool             `json:"isCurrentlyOpen"`
	TopMedicines    []*InventoryItem `json:"medicines"`
}
