package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Medicine categories describe the physical form.
var MedicineCategories = []string{
	"tablet", "capsule", "syrup", "injection", "cream", "drops", "inhaler",
	"ointment", "powder", "suspension", "gel", "patch", "suppository", "other",
}

var TherapeuticClasses = []string{
	"oncology", "diabetes", "hypertension", "antibiotics", "painkillers", "vitamins",
	"supplements", "cardiovascular", "respiratory", "gastro", "dermatology",
	"pediatrics", "mental_health", "contraceptives", "general",
}

var PregnancyCategories = []string{"A", "B", "C", "D", "X", "N/A"}

type Medicine struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	GenericName          string    `json:"genericName" db:"generic_name"`
	Brand                string    `json:"brand" db:"brand"`
	Category             string    `json:"category" db:"category"`
	TherapeuticClass     string    `json:"therapeuticClass" db:"therapeutic_class"`
	RequiresPrescription bool      `json:"requiresPrescription" db:"requires_prescription"`
	IsControlled         bool      `json:"isControlled" db:"is_controlled"`
	ActiveIngredients    []string  `json:"activeIngredients" db:"active_ingredients"`
	Indications          []string  `json:"indications" db:"indications"`
	Warnings             []string  `json:"warnings" db:"warnings"`
	SideEffects          []string  `json:"sideEffects" db:"side_effects"`
	Contraindications    []string  `json:"contraindications" db:"contraindications"`
	Description          *string   `json:"description,omitempty" db:"description"`
	Dosage               *string   `json:"dosage,omitempty" db:"dosage"`
	Strength             *string   `json:"strength,omitempty" db:"strength"`
	Manufacturer         *string   `json:"manufacturer,omitempty" db:"manufacturer"`
	Barcode              *string   `json:"barcode,omitempty" db:"barcode"`
	ImageKey             *string   `json:"-" db:"image_key"`
	ImageURL             string    `json:"image,omitempty" db:"-"`
	PregnancyCategory    *string   `json:"pregnancyCategory,omitempty" db:"pregnancy_category"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}

// MedicineSummary is the slim medicine projection used in inventory listings.
type MedicineSummary struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	GenericName      string    `json:"genericName"`
	Brand            string    `json:"brand"`
	Category         string    `json:"category"`
	TherapeuticClass string    `json:"therapeuticClass"`
	Strength         *string   `json:"strength,omitempty"`
}

// MedicineFilter holds the catalog match criteria. Text is matched
// case-insensitively against name, generic name, brand and active ingredients.
type MedicineFilter struct {
	Text                 string
	Category             string
	TherapeuticClass     string
	RequiresPrescription *bool
}

// CategoryList is the set of categories and therapeutic classes in use.
type CategoryList struct {
	Categories         []string `json:"categories"`
	TherapeuticClasses []string `json:"therapeuticClasses"`
}

// MedicineAggregate is one row of the trending analytic.
type MedicineAggregate struct {
	Medicine      *Medicine       `json:"medicine"`
	TotalQuantity int64           `json:"totalQuantity"`
	PharmacyCount int64           `json:"pharmacyCount"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
}
