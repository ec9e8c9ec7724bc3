package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionFailed    SubscriptionStatus = "failed"
)

// MpesaDetails records the mobile-money side of a subscription payment.
type MpesaDetails struct {
	PhoneNumber       string     `json:"phoneNumber" db:"phone_number"`
	ReceiptNumber     *string    `json:"mpesaReceiptNumber,omitempty" db:"receipt_number"`
	TransactionDate   *time.Time `json:"transactionDate,omitempty" db:"transaction_date"`
	CheckoutRequestID *string    `json:"checkoutRequestId,omitempty" db:"checkout_request_id"`
}

type Subscription struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	UserID        uuid.UUID          `json:"user" db:"user_id"`
	Plan          string             `json:"plan" db:"plan"`
	Amount        decimal.Decimal    `json:"amount" db:"amount"`
	Currency      string             `json:"currency" db:"currency"`
	Status        SubscriptionStatus `json:"status" db:"status"`
	StartDate     time.Time          `json:"startDate" db:"start_date"`
	EndDate       time.Time          `json:"endDate" db:"end_date"`
	AutoRenew     bool               `json:"autoRenew" db:"auto_renew"`
	PaymentMethod string             `json:"paymentMethod" db:"payment_method"`
	Mpesa         MpesaDetails       `json:"mpesaDetails"`
	CreatedAt     time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" db:"updated_at"`
}

// IsActiveAt reports whether the subscription grants access at t.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.Status == SubscriptionActive && s.EndDate.After(t)
}

// PaymentSettlement is the parsed outcome of a gateway callback.
type PaymentSettlement struct {
	CheckoutRequestID string
	MerchantRequestID string
	ResultCode        int
	ResultDesc        string
	Amount            decimal.Decimal
	ReceiptNumber     string
	TransactionDate   *time.Time
	PhoneNumber       string
}

// Succeeded reports whether the payer completed the payment.
func (p *PaymentSettlement) Succeeded() bool {
	return p.ResultCode == 0
}
