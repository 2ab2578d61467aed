package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vocanote/vocanote-backend/internal/plan"
	"gorm.io/gorm"
)

// User is the account record. Entitlement fields (plan tier, status, cycle,
// expiry) are mutated only by the entitlement service.
type User struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email                string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password             string         `gorm:"not null" json:"-"`
	Role                 string         `gorm:"size:20;default:'user'" json:"role"`
	AuthProvider         string         `gorm:"size:50;default:'email'" json:"-"`
	PlanTier             string         `gorm:"size:20;not null;default:'free'" json:"plan_tier"`
	EntitlementStatus    string         `gorm:"size:20;not null;default:'inactive'" json:"entitlement_status"`
	BillingCycle         string         `gorm:"size:20;not null;default:'none'" json:"billing_cycle"`
	EntitlementExpiresAt *time.Time     `json:"entitlement_expires_at"`
	StripeCustomerID     string         `gorm:"size:255;index" json:"-"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

const (
	EntitlementActive   = "active"
	EntitlementInactive = "inactive"
)

// HasActiveEntitlement reports whether the stored entitlement is live at now.
// Expiry is evaluated lazily here; there is no stored "expired" state.
func (u *User) HasActiveEntitlement(now time.Time) bool {
	if u.EntitlementStatus != EntitlementActive {
		return false
	}
	if u.EntitlementExpiresAt == nil {
		return true
	}
	return now.Before(*u.EntitlementExpiresAt)
}

// EffectiveTier is the tier quota lookups should use: the stored tier while
// the entitlement is live, free otherwise.
func (u *User) EffectiveTier(now time.Time) plan.Tier {
	if u.HasActiveEntitlement(now) {
		if t, ok := plan.ParseTier(u.PlanTier); ok {
			return t
		}
	}
	return plan.TierFree
}
