package models

import (
	"time"

	"github.com/google/uuid"
)

// EntitlementHistory is the append-only log of plan transitions. Rows are
// never updated after creation; each one references the payment event that
// caused it. PeriodEnd is nil for lifetime grants.
type EntitlementHistory struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	PaymentEventID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"payment_event_id"`
	PlanTier        string     `gorm:"size:20;not null" json:"plan_tier"`
	BillingCycle    string     `gorm:"size:20;not null" json:"billing_cycle"`
	AmountPaidCents int64      `gorm:"not null" json:"amount_paid_cents"`
	PeriodStart     time.Time  `gorm:"not null" json:"period_start"`
	PeriodEnd       *time.Time `json:"period_end"`
	CreatedAt       time.Time  `json:"created_at"`
}
