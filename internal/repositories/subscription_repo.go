package repositories

import (
	"context"
	"time"

	"medassist/internal/models"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Subscription, error)
	SetCheckoutRequestID(ctx context.Context, id uuid.UUID, checkoutRequestID string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error
	Activate(ctx context.Context, id uuid.UUID, settlement *models.PaymentSettlement, start, end time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error)
	ActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error)
	EntitledForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionRepo struct {
	db DBTX
}

func NewSubscriptionRepo(db DBTX) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, user_id, plan, amount, currency, status, start_date, end_date,
		auto_renew, payment_method, phone_number, receipt_number, transaction_date,
		checkout_request_id, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	s := &models.Subscription{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.Plan, &s.Amount, &s.Currency, &s.Status, &s.StartDate, &s.EndDate,
		&s.AutoRenew, &s.PaymentMethod, &s.Mpesa.PhoneNumber, &s.Mpesa.ReceiptNumber, &s.Mpesa.TransactionDate,
		&s.Mpesa.CheckoutRequestID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, s *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan, amount, currency, status, start_date, end_date,
			auto_renew, payment_method, phone_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		s.ID, s.UserID, s.Plan, s.Amount, s.Currency, s.Status, s.StartDate, s.EndDate,
		s.AutoRenew, s.PaymentMethod, s.Mpesa.PhoneNumber,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *subscriptionRepo) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE checkout_request_id = $1`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, checkoutRequestID))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *subscriptionRepo) SetCheckoutRequestID(ctx context.Context, id uuid.UUID, checkoutRequestID string) error {
	query := `UPDATE subscriptions SET checkout_request_id = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, query, checkoutRequestID, id)
}

func (r *subscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, query, status, id)
}

// Activate records the settled payment and opens the paid period.
func (r *subscriptionRepo) Activate(ctx context.Context, id uuid.UUID, p *models.PaymentSettlement, start, end time.Time) error {
	query := `
		UPDATE subscriptions
		SET status = 'active', receipt_number = $1, transaction_date = $2,
			start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $5
	`
	return r.execOne(ctx, query, p.ReceiptNumber, p.TransactionDate, start, end, id)
}

func (r *subscriptionRepo) execOne(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns the user's subscriptions, newest first.
func (r *subscriptionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscriptions := []*models.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, s)
	}
	return subscriptions, rows.Err()
}

// ActiveForUser returns the active subscription with the latest end date.
func (r *subscriptionRepo) ActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND end_date > $2
		ORDER BY end_date DESC
		LIMIT 1
	`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, userID, now))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// EntitledForUser returns the paid-up subscription that still grants
// access, including one cancelled before its end date.
func (r *subscriptionRepo) EntitledForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status IN ('active', 'cancelled') AND receipt_number IS NOT NULL AND end_date > $2
		ORDER BY end_date DESC
		LIMIT 1
	`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, userID, now))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Cancel stops renewal; the paid period is left untouched.
func (r *subscriptionRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE subscriptions SET status = 'cancelled', auto_renew = FALSE, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *subscriptionRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE subscriptions SET status = 'expired', updated_at = NOW() WHERE status = 'active' AND end_date <= $1`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
