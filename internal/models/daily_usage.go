package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyUsage is the per-account, per-calendar-day recording counter.
// Exactly one row per (user, date); seconds_used only ever grows within a
// day. "Reset" is implicit: a new date simply has no row yet.
type DailyUsage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_usage_user_date" json:"user_id"`
	UsageDate   string    `gorm:"size:10;not null;uniqueIndex:idx_daily_usage_user_date" json:"usage_date"`
	SecondsUsed int64     `gorm:"not null;default:0" json:"seconds_used"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
