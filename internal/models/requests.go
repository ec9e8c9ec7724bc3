package models

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func oneOf(values []string) validation.Rule {
	allowed := make([]interface{}, len(values))
	for i, v := range values {
		allowed[i] = v
	}
	return validation.In(allowed...)
}

var nonNegativeDecimal = validation.By(func(value interface{}) error {
	switch v := value.(type) {
	case decimal.Decimal:
		if v.IsNegative() {
			return errors.New("must not be negative")
		}
	case *decimal.Decimal:
		if v != nil && v.IsNegative() {
			return errors.New("must not be negative")
		}
	}
	return nil
})

var validLocation = validation.By(func(value interface{}) error {
	loc, ok := value.(Location)
	if !ok {
		if p, isPtr := value.(*Location); isPtr && p != nil {
			loc = *p
		} else {
			return nil
		}
	}
	if loc.Coordinates == [2]float64{} {
		return errors.New("location coordinates are required")
	}
	if loc.Longitude() < -180 || loc.Longitude() > 180 || loc.Latitude() < -90 || loc.Latitude() > 90 {
		return errors.New("coordinates must be [longitude, latitude]")
	}
	return nil
})

func (d DayHours) Validate() error {
	if d.Closed {
		return nil
	}
	return validation.ValidateStruct(&d,
		validation.Field(&d.Open, validation.Required, validation.Match(clockPattern).Error("must be HH:MM")),
		validation.Field(&d.Close, validation.Required, validation.Match(clockPattern).Error("must be HH:MM")),
	)
}

func (h OperatingHours) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Monday),
		validation.Field(&h.Tuesday),
		validation.Field(&h.Wednesday),
		validation.Field(&h.Thursday),
		validation.Field(&h.Friday),
		validation.Field(&h.Saturday),
		validation.Field(&h.Sunday),
	)
}

type CreateMedicineRequest struct {
	Name                 string   `json:"name"`
	GenericName          string   `json:"genericName"`
	Brand                string   `json:"brand"`
	Category             string   `json:"category"`
	TherapeuticClass     string   `json:"therapeuticClass"`
	RequiresPrescription bool     `json:"requiresPrescription"`
	IsControlled         bool     `json:"isControlled"`
	ActiveIngredients    []string `json:"activeIngredients"`
	Indications          []string `json:"indications"`
	Warnings             []string `json:"warnings"`
	SideEffects          []string `json:"sideEffects"`
	Contraindications    []string `json:"contraindications"`
	Description          *string  `json:"description"`
	Dosage               *string  `json:"dosage"`
	Strength             *string  `json:"strength"`
	Manufacturer         *string  `json:"manufacturer"`
	Barcode              *string  `json:"barcode"`
	PregnancyCategory    *string  `json:"pregnancyCategory"`
}

func (r CreateMedicineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("name is required"), validation.Length(1, 200)),
		validation.Field(&r.GenericName, validation.Required.Error("genericName is required"), validation.Length(1, 200)),
		validation.Field(&r.Brand, validation.Required.Error("brand is required"), validation.Length(1, 200)),
		validation.Field(&r.Category, validation.Required, oneOf(MedicineCategories)),
		validation.Field(&r.TherapeuticClass, validation.Required, oneOf(TherapeuticClasses)),
		validation.Field(&r.ActiveIngredients, validation.Each(validation.Required)),
		validation.Field(&r.PregnancyCategory, validation.NilOrNotEmpty, oneOf(PregnancyCategories)),
	)
}

// ToMedicine builds a new catalog entry from the request.
func (r CreateMedicineRequest) ToMedicine() *Medicine {
	return &Medicine{
		ID:                   uuid.New(),
		Name:                 r.Name,
		GenericName:          r.GenericName,
		Brand:                r.Brand,
		Category:             r.Category,
		TherapeuticClass:     r.TherapeuticClass,
		RequiresPrescription: r.RequiresPrescription,
		IsControlled:         r.IsControlled,
		ActiveIngredients:    r.ActiveIngredients,
		Indications:          r.Indications,
		Warnings:             r.Warnings,
		SideEffects:          r.SideEffects,
		Contraindications:    r.Contraindications,
		Description:          r.Description,
		Dosage:               r.Dosage,
		Strength:             r.Strength,
		Manufacturer:         r.Manufacturer,
		Barcode:              r.Barcode,
		PregnancyCategory:    r.PregnancyCategory,
	}
}

type CreatePharmacyRequest struct {
	Name           string           `json:"name"`
	License        string           `json:"license"`
	Location       Location         `json:"location"`
	Address        string           `json:"address"`
	County         string           `json:"county"`
	Town           string           `json:"town"`
	Phone          string           `json:"phone"`
	Email          *string          `json:"email"`
	Website        *string          `json:"website"`
	OperatingHours *OperatingHours  `json:"operatingHours"`
	Is24Hours      bool             `json:"is24Hours"`
	Services       []string         `json:"services"`
	Specialties    []string         `json:"specialties"`
	DeliveryRadius float64          `json:"deliveryRadius"`
	DeliveryFee    *decimal.Decimal `json:"deliveryFee"`
}

func (r CreatePharmacyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("name is required"), validation.Length(1, 200)),
		validation.Field(&r.License, validation.Required.Error("license is required")),
		validation.Field(&r.Location, validLocation),
		validation.Field(&r.Address, validation.Required.Error("address is required")),
		validation.Field(&r.County, validation.Required.Error("county is required")),
		validation.Field(&r.Town, validation.Required.Error("town is required")),
		validation.Field(&r.Phone, validation.Required.Error("phone is required")),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.Website, validation.NilOrNotEmpty, is.URL),
		validation.Field(&r.OperatingHours),
		validation.Field(&r.Services, validation.Each(oneOf(PharmacyServices))),
		validation.Field(&r.Specialties, validation.Each(oneOf(PharmacySpecialties))),
		validation.Field(&r.DeliveryRadius, validation.Min(0.0)),
		validation.Field(&r.DeliveryFee, nonNegativeDecimal),
	)
}

// ToPharmacy builds an unverified, active pharmacy owned by ownerID.
func (r CreatePharmacyRequest) ToPharmacy(ownerID uuid.UUID) *Pharmacy {
	hours := DefaultOperatingHours()
	if r.OperatingHours != nil {
		hours = *r.OperatingHours
	}
	fee := decimal.Zero
	if r.DeliveryFee != nil {
		fee = *r.DeliveryFee
	}
	radius := r.DeliveryRadius
	if radius == 0 {
		radius = 5000
	}
	return &Pharmacy{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           r.Name,
		License:        r.License,
		Location:       NewPoint(r.Location.Longitude(), r.Location.Latitude()),
		Address:        r.Address,
		County:         r.County,
		Town:           r.Town,
		Phone:          r.Phone,
		Email:          r.Email,
		Website:        r.Website,
		OperatingHours: hours,
		Is24Hours:      r.Is24Hours,
		Services:       r.Services,
		Specialties:    r.Specialties,
		DeliveryRadius: radius,
		DeliveryFee:    fee,
		ImageKeys:      []string{},
		IsActive:       true,
		IsVerified:     false,
	}
}

// UpdatePharmacyRequest is a partial update; nil fields are left unchanged.
type UpdatePharmacyRequest struct {
	Name           *string          `json:"name"`
	Location       *Location        `json:"location"`
	Address        *string          `json:"address"`
	County         *string          `json:"county"`
	Town           *string          `json:"town"`
	Phone          *string          `json:"phone"`
	Email          *string          `json:"email"`
	Website        *string          `json:"website"`
	OperatingHours *OperatingHours  `json:"operatingHours"`
	Is24Hours      *bool            `json:"is24Hours"`
	Services       []string         `json:"services"`
	Specialties    []string         `json:"specialties"`
	DeliveryRadius *float64         `json:"deliveryRadius"`
	DeliveryFee    *decimal.Decimal `json:"deliveryFee"`
	IsActive       *bool            `json:"isActive"`
	IsVerified     *bool            `json:"isVerified"`
}

func (r UpdatePharmacyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty),
		validation.Field(&r.Location, validLocation),
		validation.Field(&r.Address, validation.NilOrNotEmpty),
		validation.Field(&r.Phone, validation.NilOrNotEmpty),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.Website, validation.NilOrNotEmpty, is.URL),
		validation.Field(&r.OperatingHours),
		validation.Field(&r.Services, validation.Each(oneOf(PharmacyServices))),
		validation.Field(&r.Specialties, validation.Each(oneOf(PharmacySpecialties))),
		validation.Field(&r.DeliveryRadius, validation.Min(0.0)),
		validation.Field(&r.DeliveryFee, nonNegativeDecimal),
	)
}

// TouchesModeration reports whether the update changes admin-only flags.
func (r UpdatePharmacyRequest) TouchesModeration() bool {
	return r.IsActive != nil || r.IsVerified != nil
}

// ApplyTo copies the set fields onto p.
func (r UpdatePharmacyRequest) ApplyTo(p *Pharmacy) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Location != nil {
		p.Location = NewPoint(r.Location.Longitude(), r.Location.Latitude())
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.County != nil {
		p.County = *r.County
	}
	if r.Town != nil {
		p.Town = *r.Town
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Email != nil {
		p.Email = r.Email
	}
	if r.Website != nil {
		p.Website = r.Website
	}
	if r.OperatingHours != nil {
		p.OperatingHours = *r.OperatingHours
	}
	if r.Is24Hours != nil {
		p.Is24Hours = *r.Is24Hours
	}
	if r.Services != nil {
		p.Services = r.Services
	}
	if r.Specialties != nil {
		p.Specialties = r.Specialties
	}
	if r.DeliveryRadius != nil {
		p.DeliveryRadius = *r.DeliveryRadius
	}
	if r.DeliveryFee != nil {
		p.DeliveryFee = *r.DeliveryFee
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	if r.IsVerified != nil {
		p.IsVerified = *r.IsVerified
	}
}

// UpsertOfferRequest sets a pharmacy's stock for one medicine. Discontinued
// marks the offer as withdrawn; false reinstates a discontinued offer.
type UpsertOfferRequest struct {
	PharmacyID             string           `json:"pharmacyId"`
	MedicineID             string           `json:"medicineId"`
	Quantity               int              `json:"quantity"`
	Price                  decimal.Decimal  `json:"price"`
	DiscountPrice          *decimal.Decimal `json:"discountPrice"`
	MinQuantityAlert       *int             `json:"minQuantityAlert"`
	MaxQuantityPerCustomer *int             `json:"maxQuantityPerCustomer"`
	ExpiryDate             *time.Time       `json:"expiryDate"`
	BatchNumber            *string          `json:"batchNumber"`
	Discontinued           *bool            `json:"discontinued"`
}

func (r UpsertOfferRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PharmacyID, validation.Required, is.UUID),
		validation.Field(&r.MedicineID, validation.Required, is.UUID),
		validation.Field(&r.Quantity, validation.Min(0)),
		validation.Field(&r.Price, nonNegativeDecimal),
		validation.Field(&r.DiscountPrice, nonNegativeDecimal, validation.By(func(interface{}) error {
			if r.DiscountPrice != nil && r.DiscountPrice.GreaterThan(r.Price) {
				return errors.New("must not exceed price")
			}
			return nil
		})),
		validation.Field(&r.MinQuantityAlert, validation.Min(0)),
		validation.Field(&r.MaxQuantityPerCustomer, validation.Min(1)),
	)
}

type SubscribeRequest struct {
	Plan        string `json:"plan"`
	PhoneNumber string `json:"phoneNumber"`
}

func (r SubscribeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Plan, validation.Required.Error("plan is required")),
		validation.Field(&r.PhoneNumber, validation.Required.Error("phoneNumber is required")),
	)
}

type PaymentQueryRequest struct {
	CheckoutRequestID string `json:"checkoutRequestId"`
}

func (r PaymentQueryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CheckoutRequestID, validation.Required.Error("checkoutRequestId is required")),
	)
}
