package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PaymentEvent is the write-once record of a verified completed payment.
// ExternalPaymentID is the processor's session/payment identifier; the
// unique index is what makes duplicate webhook deliveries a no-op.
type PaymentEvent struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalPaymentID   string         `gorm:"uniqueIndex;not null;size:255" json:"external_payment_id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Email               string         `gorm:"size:255;not null" json:"email"`
	AmountPaidCents     int64          `gorm:"not null" json:"amount_paid_cents"`
	OriginalAmountCents int64          `gorm:"not null" json:"original_amount_cents"`
	DiscountCents       int64          `gorm:"not null;default:0" json:"discount_cents"`
	Currency            string         `gorm:"size:3;not null;default:'usd'" json:"currency"`
	PlanTier            string         `gorm:"size:20;not null" json:"plan_tier"`
	BillingCycle        string         `gorm:"size:20;not null" json:"billing_cycle"`
	Metadata            datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt           time.Time      `json:"created_at"`
}
