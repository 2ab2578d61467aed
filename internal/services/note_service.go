package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vocanote/vocanote-backend/internal/dto"
	"github.com/vocanote/vocanote-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNoteNotFound = errors.New("voice note not found")
	ErrNotOwner     = errors.New("you do not own this voice note")
)

type NoteService struct {
	db *gorm.DB
}

func NewNoteService(db *gorm.DB) *NoteService {
	return &NoteService{db: db}
}

// Create persists a recorded voice note. Quota enforcement is the caller's
// job: handlers check remaining allowance first and record consumed seconds
// after a successful create.
func (s *NoteService) Create(userID uuid.UUID, req dto.CreateNoteRequest) (*models.VoiceNote, error) {
	if req.DurationSeconds <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled note"
	}
	if len(title) > 255 {
		title = title[:255]
	}

	note := models.VoiceNote{
		ID:                  uuid.New(),
		UserID:              userID,
		Title:               title,
		DurationSeconds:     req.DurationSeconds,
		AudioURL:            req.AudioURL,
		Language:            req.Language,
		TranscriptionStatus: models.TranscriptionPending,
	}
	if err := s.db.Create(&note).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &note, nil
}

func (s *NoteService) List(userID uuid.UUID, limit, offset int) ([]models.VoiceNote, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var notes []models.VoiceNote
	var total int64

	s.db.Model(&models.VoiceNote{}).Where("user_id = ?", userID).Count(&total)

	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return notes, total, nil
}

func (s *NoteService) Get(userID uuid.UUID, noteID uuid.UUID) (*models.VoiceNote, error) {
	var note models.VoiceNote
	if err := s.db.First(&note, "id = ?", noteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if note.UserID != userID {
		return nil, ErrNotOwner
	}

	return &note, nil
}

func (s *NoteService) Delete(userID uuid.UUID, noteID uuid.UUID) error {
	note, err := s.Get(userID, noteID)
	if err != nil {
		return err
	}
	return s.db.Delete(note).Error
}

// SetTranscript stores the transcription outcome for a note.
func (s *NoteService) SetTranscript(noteID uuid.UUID, transcript, status string) error {
	return s.db.Model(&models.VoiceNote{}).Where("id = ?", noteID).Updates(map[string]interface{}{
		"transcript":           transcript,
		"transcription_status": status,
	}).Error
}
