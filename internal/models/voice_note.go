package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TranscriptionPending   = "pending"
	TranscriptionCompleted = "completed"
	TranscriptionFailed    = "failed"
)

type VoiceNote struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title               string         `gorm:"size:255" json:"title"`
	DurationSeconds     int64          `gorm:"not null" json:"duration_seconds"`
	AudioURL            string         `gorm:"type:text" json:"audio_url"`
	Transcript          string         `gorm:"type:text" json:"transcript"`
	TranscriptionStatus string         `gorm:"size:20;not null;default:'pending'" json:"transcription_status"`
	Language            string         `gorm:"size:10" json:"language"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}
