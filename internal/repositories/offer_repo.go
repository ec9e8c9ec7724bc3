package repositories

import (
	"context"
	"fmt"

	"medassist/internal/common"
	"medassist/internal/models"

	"github.com/google/uuid"
)

type OfferRepository interface {
	FindAvailable(ctx context.Context, filter *models.OfferFilter) ([]*models.AnnotatedOffer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	GetByPharmacyAndMedicine(ctx context.Context, pharmacyID, medicineID uuid.UUID) (*models.Offer, error)
	Upsert(ctx context.Context, offer *models.Offer) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPharmacy(ctx context.Context, filter *models.InventoryFilter) ([]*models.InventoryItem, int, error)
	LowStock(ctx context.Context, pharmacyID uuid.UUID) ([]*models.InventoryItem, error)
	TopAvailable(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]*models.InventoryItem, error)
	Trending(ctx context.Context, limit int) ([]*models.MedicineAggregate, error)
	LowStockSummaries(ctx context.Context) ([]*models.LowStockSummary, error)
}

type offerRepo struct {
	db DBTX
}

func NewOfferRepo(db DBTX) OfferRepository {
	return &offerRepo{db: db}
}

const offerColumns = `i.id, i.pharmacy_id, i.medicine_id, i.quantity, i.price, i.discount_price,
		i.min_quantity_alert, i.max_quantity_per_customer, i.status, i.expiry_date, i.batch_number,
		i.last_updated, i.created_at`

const inventoryItemColumns = offerColumns + `,
		m.id, m.name, m.generic_name, m.brand, m.category, m.therapeutic_class, m.strength`

func scanOffer(row rowScanner) (*models.Offer, error) {
	o := &models.Offer{}
	err := row.Scan(
		&o.ID, &o.PharmacyID, &o.MedicineID, &o.Quantity, &o.Price, &o.DiscountPrice,
		&o.MinQuantityAlert, &o.MaxQuantityPerCustomer, &o.Status, &o.ExpiryDate, &o.BatchNumber,
		&o.LastUpdated, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func scanInventoryItem(row rowScanner) (*models.InventoryItem, error) {
	o := &models.Offer{}
	item := &models.InventoryItem{Offer: o}
	m := &item.Medicine
	err := row.Scan(
		&o.ID, &o.PharmacyID, &o.MedicineID, &o.Quantity, &o.Price, &o.DiscountPrice,
		&o.MinQuantityAlert, &o.MaxQuantityPerCustomer, &o.Status, &o.ExpiryDate, &o.BatchNumber,
		&o.LastUpdated, &o.CreatedAt,
		&m.ID, &m.Name, &m.GenericName, &m.Brand, &m.Category, &m.TherapeuticClass, &m.Strength,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// FindAvailable returns in-stock offers for the given medicines, joined with
// the summary of an active, verified pharmacy.
func (r *offerRepo) FindAvailable(ctx context.Context, filter *models.OfferFilter) ([]*models.AnnotatedOffer, error) {
	query := `
		SELECT i.id, i.medicine_id, i.quantity, i.price, i.discount_price, i.status,
			p.id, p.name, p.address, p.phone, p.longitude, p.latitude, p.rating, p.operating_hours,
			p.services, p.is_24_hours, p.is_active, p.is_verified
		FROM inventory i
		JOIN pharmacies p ON p.id = i.pharmacy_id
		WHERE i.medicine_id = ANY($1)
			AND i.status <> 'out_of_stock'
			AND p.is_active = TRUE AND p.is_verified = TRUE`

	args := []interface{}{filter.MedicineIDs}
	conditionCount := 1

	if filter.MinPrice != nil {
		conditionCount++
		query += fmt.Sprintf(" AND i.price >= $%d", conditionCount)
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditionCount++
		query += fmt.Sprintf(" AND i.price <= $%d", conditionCount)
		args = append(args, *filter.MaxPrice)
	}
	if b := filter.Bounds; b != nil {
		query += fmt.Sprintf(" AND p.latitude BETWEEN $%d AND $%d", conditionCount+1, conditionCount+2)
		args = append(args, b.MinLatitude, b.MaxLatitude)
		conditionCount += 2
		if !b.WrapsLongitude {
			query += fmt.Sprintf(" AND p.longitude BETWEEN $%d AND $%d", conditionCount+1, conditionCount+2)
			args = append(args, b.MinLongitude, b.MaxLongitude)
			conditionCount += 2
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*models.AnnotatedOffer
	for rows.Next() {
		o := &models.AnnotatedOffer{}
		ph := &o.Pharmacy.PharmacySummary
		var lon, lat float64
		err := rows.Scan(
			&o.ID, &o.MedicineID, &o.Quantity, &o.Price, &o.DiscountPrice, &o.Status,
			&ph.ID, &ph.Name, &ph.Address, &ph.Phone, &lon, &lat, &ph.Rating, &ph.OperatingHours,
			&ph.Services, &ph.Is24Hours, &ph.IsActive, &ph.IsVerified,
		)
		if err != nil {
			return nil, err
		}
		ph.Location = models.NewPoint(lon, lat)
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (r *offerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM inventory i WHERE i.id = $1`
	o, err := scanOffer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r *offerRepo) GetByPharmacyAndMedicine(ctx context.Context, pharmacyID, medicineID uuid.UUID) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM inventory i WHERE i.pharmacy_id = $1 AND i.medicine_id = $2`
	o, err := scanOffer(r.db.QueryRow(ctx, query, pharmacyID, medicineID))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// Upsert writes the offer keyed by (pharmacy, medicine). The status must
// already be derived by the caller.
func (r *offerRepo) Upsert(ctx context.Context, o *models.Offer) error {
	query := `
		INSERT INTO inventory (id, pharmacy_id, medicine_id, quantity, price, discount_price,
			min_quantity_alert, max_quantity_per_customer, status, expiry_date, batch_number,
			last_updated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (pharmacy_id, medicine_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			discount_price = EXCLUDED.discount_price,
			min_quantity_alert = EXCLUDED.min_quantity_alert,
			max_quantity_per_customer = EXCLUDED.max_quantity_per_customer,
			status = EXCLUDED.status,
			expiry_date = EXCLUDED.expiry_date,
			batch_number = EXCLUDED.batch_number,
			last_updated = NOW()
		RETURNING id, last_updated, created_at
	`
	return r.db.QueryRow(ctx, query,
		o.ID, o.PharmacyID, o.MedicineID, o.Quantity, o.Price, o.DiscountPrice,
		o.MinQuantityAlert, o.MaxQuantityPerCustomer, o.Status, o.ExpiryDate, o.BatchNumber,
	).Scan(&o.ID, &o.LastUpdated, &o.CreatedAt)
}

func (r *offerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByPharmacy pages a pharmacy's inventory sorted by medicine name and
// returns the unpaged total alongside.
func (r *offerRepo) ListByPharmacy(ctx context.Context, filter *models.InventoryFilter) ([]*models.InventoryItem, int, error) {
	where := ` WHERE i.pharmacy_id = $1`
	args := []interface{}{filter.PharmacyID}
	conditionCount := 1

	if filter.Status != "" && filter.Status != "all" {
		conditionCount++
		where += fmt.Sprintf(" AND i.status = $%d", conditionCount)
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditionCount++
		where += fmt.Sprintf(" AND (m.name ILIKE $%d OR m.generic_name ILIKE $%d OR m.brand ILIKE $%d)",
			conditionCount, conditionCount, conditionCount)
		args = append(args, common.EscapeLikePattern(filter.Search))
	}
	if filter.TherapeuticClass != "" {
		conditionCount++
		where += fmt.Sprintf(" AND m.therapeutic_class = $%d", conditionCount)
		args = append(args, filter.TherapeuticClass)
	}

	from := ` FROM inventory i JOIN medicines m ON m.id = i.medicine_id`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + inventoryItemColumns + from + where +
		fmt.Sprintf(" ORDER BY m.name, i.id LIMIT $%d OFFSET $%d", conditionCount+1, conditionCount+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	items, err := r.queryItems(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// LowStock lists offers at or below their alert threshold, emptiest first.
func (r *offerRepo) LowStock(ctx context.Context, pharmacyID uuid.UUID) ([]*models.InventoryItem, error) {
	query := `
		SELECT ` + inventoryItemColumns + `
		FROM inventory i
		JOIN medicines m ON m.id = i.medicine_id
		WHERE i.pharmacy_id = $1 AND i.quantity <= i.min_quantity_alert AND i.status <> 'discontinued'
		ORDER BY i.quantity, m.name
	`
	return r.queryItems(ctx, query, pharmacyID)
}

// TopAvailable lists a pharmacy's available offers with the most stock.
func (r *offerRepo) TopAvailable(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]*models.InventoryItem, error) {
	query := `
		SELECT ` + inventoryItemColumns + `
		FROM inventory i
		JOIN medicines m ON m.id = i.medicine_id
		WHERE i.pharmacy_id = $1 AND i.status = 'available'
		ORDER BY i.quantity DESC, m.name
		LIMIT $2
	`
	return r.queryItems(ctx, query, pharmacyID, limit)
}

func (r *offerRepo) queryItems(ctx context.Context, query string, args ...interface{}) ([]*models.InventoryItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.InventoryItem{}
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Trending aggregates available offers per medicine, ranked by how many
// pharmacies stock it and then by total units.
func (r *offerRepo) Trending(ctx context.Context, limit int) ([]*models.MedicineAggregate, error) {
	query := `
		SELECT ` + medicineColumns + `, t.total_quantity, t.pharmacy_count, t.avg_price
		FROM (
			SELECT medicine_id,
				SUM(quantity) AS total_quantity,
				COUNT(DISTINCT pharmacy_id) AS pharmacy_count,
				ROUND(AVG(price), 2) AS avg_price
			FROM inventory
			WHERE status = 'available'
			GROUP BY medicine_id
		) t
		JOIN medicines m ON m.id = t.medicine_id
		ORDER BY t.pharmacy_count DESC, t.total_quantity DESC, m.name
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := []*models.MedicineAggregate{}
	for rows.Next() {
		m := &models.Medicine{}
		a := &models.MedicineAggregate{Medicine: m}
		err := rows.Scan(
			&m.ID, &m.Name, &m.GenericName, &m.Brand, &m.Category, &m.TherapeuticClass,
			&m.RequiresPrescription, &m.IsControlled, &m.ActiveIngredients, &m.Indications, &m.Warnings,
			&m.SideEffects, &m.Contraindications, &m.Description, &m.Dosage, &m.Strength, &m.Manufacturer,
			&m.Barcode, &m.ImageKey, &m.PregnancyCategory, &m.CreatedAt, &m.UpdatedAt,
			&a.TotalQuantity, &a.PharmacyCount, &a.AvgPrice,
		)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}

// LowStockSummaries counts low-stock offers per active pharmacy.
func (r *offerRepo) LowStockSummaries(ctx context.Context) ([]*models.LowStockSummary, error) {
	query := `
		SELECT p.id, p.name, p.phone, COUNT(*)
		FROM inventory i
		JOIN pharmacies p ON p.id = i.pharmacy_id
		WHERE p.is_active = TRUE AND i.quantity <= i.min_quantity_alert AND i.status <> 'discontinued'
		GROUP BY p.id, p.name, p.phone
		ORDER BY COUNT(*) DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.LowStockSummary
	for rows.Next() {
		s := &models.LowStockSummary{}
		if err := rows.Scan(&s.PharmacyID, &s.PharmacyName, &s.Phone, &s.ItemCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
