// Package domain contains payment records and the checkout gateway contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/plan"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Payment records a paid-plan checkout. It is created only after a checkout
// session exists, always in PENDING status with the session id attached, so
// there is never a payment row with no way to reconcile. Amount is
// provisional (zero) until the provider webhook confirms the real charge.
type Payment struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrganizationID  snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	UserID          snowflake.ID  `gorm:"not null;index" json:"user_id"`
	Plan            plan.Plan     `gorm:"type:text;not null" json:"plan"`
	Amount          int64         `gorm:"not null;default:0" json:"amount"`
	Currency        string        `gorm:"type:text;not null" json:"currency"`
	Status          string        `gorm:"type:text;not null" json:"status"`
	StripeSessionID *string       `gorm:"type:text;uniqueIndex" json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrPaymentNotFound    = errors.New("payment not found")
)

// CheckoutRequest asks the gateway for a hosted checkout flow.
type CheckoutRequest struct {
	PriceID           string
	CustomerEmail     string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
}

// CheckoutSession is the gateway's hosted flow: ID becomes
// Payment.StripeSessionID and URL is returned to the caller for redirect.
type CheckoutSession struct {
	ID  string
	URL string
}

// Gateway creates hosted checkout sessions. Completion is confirmed
// out-of-band by the provider webhook.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	FindBySessionID(ctx context.Context, sessionID string) (*Payment, error)
	// UpdateStatusBySessionID is the reconciliation hook the provider
	// webhook handler uses to flip PENDING payments.
	UpdateStatusBySessionID(ctx context.Context, sessionID string, status string, amount int64) error
}
