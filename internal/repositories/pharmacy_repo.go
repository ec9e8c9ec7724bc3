package repositories

import (
	"context"
	"fmt"

	"medassist/internal/models"

	"github.com/google/uuid"
)

type PharmacyRepository interface {
	Create(ctx context.Context, pharmacy *models.Pharmacy) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Pharmacy, error)
	Update(ctx context.Context, pharmacy *models.Pharmacy) error
	LicenseExists(ctx context.Context, license string) (bool, error)
	FindNearby(ctx context.Context, filter *models.NearbyFilter, bounds *models.GeoBounds) ([]*models.Pharmacy, error)
	AddImage(ctx context.Context, id uuid.UUID, imageKey string) error
}

type pharmacyRepo struct {
	db DBTX
}

func NewPharmacyRepo(db DBTX) PharmacyRepository {
	return &pharmacyRepo{db: db}
}

const pharmacyColumns = `p.id, p.owner_id, p.name, p.license, p.longitude, p.latitude, p.address, p.county,
		p.town, p.phone, p.email, p.website, p.operating_hours, p.is_24_hours, p.services, p.specialties,
		p.rating, p.total_reviews, p.delivery_radius, p.delivery_fee, p.images, p.is_active, p.is_verified,
		p.created_at, p.updated_at`

func scanPharmacy(row rowScanner) (*models.Pharmacy, error) {
	p := &models.Pharmacy{}
	var lon, lat float64
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.License, &lon, &lat, &p.Address, &p.County,
		&p.Town, &p.Phone, &p.Email, &p.Website, &p.OperatingHours, &p.Is24Hours, &p.Services, &p.Specialties,
		&p.Rating, &p.TotalReviews, &p.DeliveryRadius, &p.DeliveryFee, &p.ImageKeys, &p.IsActive, &p.IsVerified,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Location = models.NewPoint(lon, lat)
	return p, nil
}

func (r *pharmacyRepo) Create(ctx context.Context, p *models.Pharmacy) error {
	query := `
		INSERT INTO pharmacies (id, owner_id, name, license, longitude, latitude, address, county, town,
			phone, email, website, operating_hours, is_24_hours, services, specialties, delivery_radius,
			delivery_fee, images, is_active, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.ID, p.OwnerID, p.Name, p.License, p.Location.Longitude(), p.Location.Latitude(), p.Address, p.County, p.Town,
		p.Phone, p.Email, p.Website, p.OperatingHours, p.Is24Hours, nonNil(p.Services), nonNil(p.Specialties), p.DeliveryRadius,
		p.DeliveryFee, nonNil(p.ImageKeys), p.IsActive, p.IsVerified,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err, "pharmacies_license_key") {
		return ErrLicenseExists
	}
	return err
}

func (r *pharmacyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Pharmacy, error) {
	query := `SELECT ` + pharmacyColumns + ` FROM pharmacies p WHERE p.id = $1`
	p, err := scanPharmacy(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *pharmacyRepo) Update(ctx context.Context, p *models.Pharmacy) error {
	query := `
		UPDATE pharmacies
		SET name = $1, longitude = $2, latitude = $3, address = $4, county = $5, town = $6, phone = $7,
			email = $8, website = $9, operating_hours = $10, is_24_hours = $11, services = $12,
			specialties = $13, delivery_radius = $14, delivery_fee = $15, is_active = $16, is_verified = $17,
			updated_at = NOW()
		WHERE id = $18
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.Name, p.Location.Longitude(), p.Location.Latitude(), p.Address, p.County, p.Town, p.Phone,
		p.Email, p.Website, p.OperatingHours, p.Is24Hours, nonNil(p.Services),
		nonNil(p.Specialties), p.DeliveryRadius, p.DeliveryFee, p.IsActive, p.IsVerified,
		p.ID,
	).Scan(&p.UpdatedAt)
	return notFound(err)
}

func (r *pharmacyRepo) LicenseExists(ctx context.Context, license string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pharmacies WHERE license = $1)`, license).Scan(&exists)
	return exists, err
}

// FindNearby returns eligible pharmacies inside bounds that match the tag
// filters. Exact distance filtering is left to the caller.
func (r *pharmacyRepo) FindNearby(ctx context.Context, filter *models.NearbyFilter, bounds *models.GeoBounds) ([]*models.Pharmacy, error) {
	query := `
		SELECT ` + pharmacyColumns + `
		FROM pharmacies p
		WHERE p.is_active = TRUE AND p.is_verified = TRUE
			AND p.latitude BETWEEN $1 AND $2`

	args := []interface{}{bounds.MinLatitude, bounds.MaxLatitude}
	conditionCount := 2

	if !bounds.WrapsLongitude {
		query += fmt.Sprintf(" AND p.longitude BETWEEN $%d AND $%d", conditionCount+1, conditionCount+2)
		args = append(args, bounds.MinLongitude, bounds.MaxLongitude)
		conditionCount += 2
	}
	if filter.Specialty != "" {
		conditionCount++
		query += fmt.Sprintf(" AND $%d = ANY(p.specialties)", conditionCount)
		args = append(args, filter.Specialty)
	}
	if filter.Only24Hour {
		query += " AND p.is_24_hours = TRUE"
	}
	if len(filter.Services) > 0 {
		conditionCount++
		query += fmt.Sprintf(" AND p.services && $%d::text[]", conditionCount)
		args = append(args, filter.Services)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pharmacies []*models.Pharmacy
	for rows.Next() {
		p, err := scanPharmacy(rows)
		if err != nil {
			return nil, err
		}
		pharmacies = append(pharmacies, p)
	}
	return pharmacies, rows.Err()
}

func (r *pharmacyRepo) AddImage(ctx context.Context, id uuid.UUID, imageKey string) error {
	tag, err := r.db.Exec(ctx, `UPDATE pharmacies SET images = array_append(images, $1), updated_at = NOW() WHERE id = $2`, imageKey, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
