package repositories

import (
	"context"
	"fmt"

	"medassist/internal/common"
	"medassist/internal/models"

	"github.com/google/uuid"
)

type MedicineRepository interface {
	Search(ctx context.Context, filter *models.MedicineFilter) ([]*models.Medicine, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Medicine, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Medicine, error)
	Create(ctx context.Context, medicine *models.Medicine) error
	SetImage(ctx context.Context, id uuid.UUID, imageKey string) error
	Categories(ctx context.Context) (*models.CategoryList, error)
}

type medicineRepo struct {
	db DBTX
}

func NewMedicineRepo(db DBTX) MedicineRepository {
	return &medicineRepo{db: db}
}

const medicineColumns = `m.id, m.name, m.generic_name, m.brand, m.category, m.therapeutic_class,
		m.requires_prescription, m.is_controlled, m.active_ingredients, m.indications, m.warnings,
		m.side_effects, m.contraindications, m.description, m.dosage, m.strength, m.manufacturer,
		m.barcode, m.image_key, m.pregnancy_category, m.created_at, m.updated_at`

func scanMedicine(row rowScanner) (*models.Medicine, error) {
	m := &models.Medicine{}
	err := row.Scan(
		&m.ID, &m.Name, &m.GenericName, &m.Brand, &m.Category, &m.TherapeuticClass,
		&m.RequiresPrescription, &m.IsControlled, &m.ActiveIngredients, &m.Indications, &m.Warnings,
		&m.SideEffects, &m.Contraindications, &m.Description, &m.Dosage, &m.Strength, &m.Manufacturer,
		&m.Barcode, &m.ImageKey, &m.PregnancyCategory, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Search matches the filter text against name, generic name, brand and any
// active ingredient, ANDed with the exact-match filters.
func (r *medicineRepo) Search(ctx context.Context, filter *models.MedicineFilter) ([]*models.Medicine, error) {
	query := `
		SELECT ` + medicineColumns + `
		FROM medicines m
		WHERE (m.name ILIKE $1 OR m.generic_name ILIKE $1 OR m.brand ILIKE $1
			OR EXISTS (SELECT 1 FROM unnest(m.active_ingredients) AS ai WHERE ai ILIKE $1))`

	args := []interface{}{common.EscapeLikePattern(filter.Text)}
	conditionCount := 1

	if filter.Category != "" {
		conditionCount++
		query += fmt.Sprintf(" AND m.category = $%d", conditionCount)
		args = append(args, filter.Category)
	}
	if filter.TherapeuticClass != "" {
		conditionCount++
		query += fmt.Sprintf(" AND m.therapeutic_class = $%d", conditionCount)
		args = append(args, filter.TherapeuticClass)
	}
	if filter.RequiresPrescription != nil {
		conditionCount++
		query += fmt.Sprintf(" AND m.requires_prescription = $%d", conditionCount)
		args = append(args, *filter.RequiresPrescription)
	}
	query += " ORDER BY m.name, m.id"

	return r.queryMedicines(ctx, query, args...)
}

func (r *medicineRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM medicines m WHERE m.id = $1`
	m, err := scanMedicine(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (r *medicineRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Medicine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + medicineColumns + ` FROM medicines m WHERE m.id = ANY($1) ORDER BY m.name, m.id`
	return r.queryMedicines(ctx, query, ids)
}

func (r *medicineRepo) queryMedicines(ctx context.Context, query string, args ...interface{}) ([]*models.Medicine, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var medicines []*models.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		medicines = append(medicines, m)
	}
	return medicines, rows.Err()
}

func (r *medicineRepo) Create(ctx context.Context, m *models.Medicine) error {
	query := `
		INSERT INTO medicines (id, name, generic_name, brand, category, therapeutic_class,
			requires_prescription, is_controlled, active_ingredients, indications, warnings,
			side_effects, contraindications, description, dosage, strength, manufacturer,
			barcode, pregnancy_category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		m.ID, m.Name, m.GenericName, m.Brand, m.Category, m.TherapeuticClass,
		m.RequiresPrescription, m.IsControlled, nonNil(m.ActiveIngredients), nonNil(m.Indications), nonNil(m.Warnings),
		nonNil(m.SideEffects), nonNil(m.Contraindications), m.Description, m.Dosage, m.Strength, m.Manufacturer,
		m.Barcode, m.PregnancyCategory,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *medicineRepo) SetImage(ctx context.Context, id uuid.UUID, imageKey string) error {
	tag, err := r.db.Exec(ctx, `UPDATE medicines SET image_key = $1, updated_at = NOW() WHERE id = $2`, imageKey, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories lists the distinct categories and therapeutic classes in the catalog.
func (r *medicineRepo) Categories(ctx context.Context) (*models.CategoryList, error) {
	categories, err := r.distinct(ctx, `SELECT DISTINCT category FROM medicines ORDER BY category`)
	if err != nil {
		return nil, err
	}
	classes, err := r.distinct(ctx, `SELECT DISTINCT therapeutic_class FROM medicines ORDER BY therapeutic_class`)
	if err != nil {
		return nil, err
	}
	return &models.CategoryList{Categories: categories, TherapeuticClasses: classes}, nil
}

func (r *medicineRepo) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
