package availability

import (
	"bytes"
	"cmp"
	"slices"
	"time"

	"medassist/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRange bounds offer prices inclusively; a nil end is unbounded.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// NewPriceRange builds a range from optional integer bounds.
func NewPriceRange(minPrice, maxPrice *int) PriceRange {
	var r PriceRange
	if minPrice != nil {
		v := decimal.NewFromInt(int64(*minPrice))
		r.Min = &v
	}
	if maxPrice != nil {
		v := decimal.NewFromInt(int64(*maxPrice))
		r.Max = &v
	}
	return r
}

func (r PriceRange) Contains(price decimal.Decimal) bool {
	if r.Min != nil && price.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && price.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// FilterEligibleOffers keeps offers that are in stock and inside the price range.
func FilterEligibleOffers(offers []*models.AnnotatedOffer, prices PriceRange) []*models.AnnotatedOffer {
	out := make([]*models.AnnotatedOffer, 0, len(offers))
	for _, o := range offers {
		if o.Status == models.StatusOutOfStock || !prices.Contains(o.Price) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// FilterEligiblePharmacies drops offers whose pharmacy is inactive or unverified.
func FilterEligiblePharmacies(offers []*models.AnnotatedOffer) []*models.AnnotatedOffer {
	out := make([]*models.AnnotatedOffer, 0, len(offers))
	for _, o := range offers {
		if o.Pharmacy.IsActive && o.Pharmacy.IsVerified {
			out = append(out, o)
		}
	}
	return out
}

// FilterWithinRadius keeps offers whose pharmacy lies within radius meters of
// origin and records the distance on each survivor.
func FilterWithinRadius(offers []*models.AnnotatedOffer, origin Point, radius float64) []*models.AnnotatedOffer {
	out := make([]*models.AnnotatedOffer, 0, len(offers))
	for _, o := range offers {
		d := DistanceMeters(origin, PointOf(o.Pharmacy.Location))
		if d > radius {
			continue
		}
		o.Distance = &d
		out = append(out, o)
	}
	return out
}

// AnnotateOpen sets IsCurrentlyOpen on every offer's pharmacy.
func AnnotateOpen(offers []*models.AnnotatedOffer, now time.Time) {
	for _, o := range offers {
		o.Pharmacy.IsCurrentlyOpen = IsOpen(o.Pharmacy.OperatingHours, o.Pharmacy.Is24Hours, now)
	}
}

// SortOffers orders offers by distance then price when geoAware, by price otherwise.
// Remaining ties fall back to pharmacy and offer id so pages are stable.
func SortOffers(offers []*models.AnnotatedOffer, geoAware bool) {
	slices.SortStableFunc(offers, func(a, b *models.AnnotatedOffer) int {
		if geoAware {
			if c := cmp.Compare(distanceOf(a), distanceOf(b)); c != 0 {
				return c
			}
		}
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c
		}
		if c := compareIDs(a.Pharmacy.ID, b.Pharmacy.ID); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
}

// GroupByMedicine buckets sorted offers under their medicine. Groups appear in
// the order of their first offer and keep the offers' relative order.
// Offers for medicines missing from the lookup are dropped.
func GroupByMedicine(offers []*models.AnnotatedOffer, medicines []*models.Medicine) []*models.SearchResultGroup {
	byID := make(map[uuid.UUID]*models.Medicine, len(medicines))
	for _, m := range medicines {
		byID[m.ID] = m
	}

	index := make(map[uuid.UUID]int)
	var groups []*models.SearchResultGroup
	for _, o := range offers {
		med, ok := byID[o.MedicineID]
		if !ok {
			continue
		}
		i, seen := index[o.MedicineID]
		if !seen {
			i = len(groups)
			index[o.MedicineID] = i
			groups = append(groups, &models.SearchResultGroup{Medicine: med})
		}
		groups[i].Availability = append(groups[i].Availability, o)
	}
	return groups
}

// Paginate returns the 1-indexed page of items. page and limit must be positive.
func Paginate[T any](items []T, page, limit int) ([]T, models.PageInfo) {
	total := len(items)
	info := models.PageInfo{
		Total:       total,
		Pages:       (total + limit - 1) / limit,
		CurrentPage: page,
	}

	start := (page - 1) * limit
	if start >= total {
		return []T{}, info
	}
	end := min(start+limit, total)

	pageItems := items[start:end]
	info.Count = len(pageItems)
	return pageItems, info
}

// FilterPharmaciesWithinRadius keeps eligible pharmacies within radius meters
// of origin, nearest first.
func FilterPharmaciesWithinRadius(pharmacies []*models.Pharmacy, origin Point, radius float64) []*models.AnnotatedPharmacy {
	out := make([]*models.AnnotatedPharmacy, 0, len(pharmacies))
	for _, p := range pharmacies {
		if !p.Eligible() {
			continue
		}
		d := DistanceMeters(origin, PointOf(p.Location))
		if d > radius {
			continue
		}
		out = append(out, &models.AnnotatedPharmacy{Pharmacy: p, Distance: &d})
	}

	slices.SortStableFunc(out, func(a, b *models.AnnotatedPharmacy) int {
		if c := cmp.Compare(*a.Distance, *b.Distance); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out
}

// AnnotatePharmaciesOpen sets IsCurrentlyOpen on each proximity result.
func AnnotatePharmaciesOpen(pharmacies []*models.AnnotatedPharmacy, now time.Time) {
	for _, p := range pharmacies {
		p.IsCurrentlyOpen = IsOpen(p.OperatingHours, p.Is24Hours, now)
	}
}

func distanceOf(o *models.AnnotatedOffer) float64 {
	if o.Distance == nil {
		return 0
	}
	return *o.Distance
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
