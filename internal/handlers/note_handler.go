package handlers

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vocanote/vocanote-backend/internal/dto"
	"github.com/vocanote/vocanote-backend/internal/middleware"
	"github.com/vocanote/vocanote-backend/internal/services"

	"github.com/google/uuid"
)

const maxAudioBytes = 25 * 1024 * 1024

type NoteHandler struct {
	noteService          *services.NoteService
	usageService         *services.UsageService
	transcriptionService *services.TranscriptionService
}

func NewNoteHandler(noteService *services.NoteService, usageService *services.UsageService, transcriptionService *services.TranscriptionService) *NoteHandler {
	return &NoteHandler{
		noteService:          noteService,
		usageService:         usageService,
		transcriptionService: transcriptionService,
	}
}

// Create accepts a recorded voice note as multipart form data (audio file
// plus title/duration fields). The flow is check-then-record: remaining
// allowance is checked up front, the note is created, and the consumed
// seconds are recorded after the fact.
func (h *NoteHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	duration, err := strconv.ParseInt(c.FormValue("duration_seconds"), 10, 64)
	if err != nil || duration <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "duration_seconds must be a positive integer"})
	}

	today := h.usageService.Today()
	summary, err := h.usageService.GetRemaining(userID, today)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: true, Message: "Failed to check recording allowance"})
	}
	if !summary.Unlimited && summary.RemainingSeconds <= 0 {
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Error: true, Message: "Daily recording limit reached. Upgrade for unlimited recording."})
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Audio file is required"})
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Only audio uploads are supported"})
	}
	if file.Size > maxAudioBytes {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Audio too large. Maximum 25MB."})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to read audio"})
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to read audio data"})
	}

	note, err := h.noteService.Create(userID, dto.CreateNoteRequest{
		Title:           c.FormValue("title"),
		DurationSeconds: duration,
		AudioURL:        c.FormValue("audio_url"),
		Language:        c.FormValue("language"),
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to save voice note"})
	}

	if _, err := h.usageService.RecordUsage(userID, today, duration); err != nil {
		slog.Error("failed to record usage after note create", "user_id", userID.String(), "note_id", note.ID.String(), "error", err)
	}

	go h.transcriptionService.Transcribe(note.ID, file.Filename, audio, note.Language)

	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *NoteHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	notes, total, err := h.noteService.List(userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch voice notes"})
	}

	return c.JSON(fiber.Map{"notes": notes, "total": total, "limit": limit, "offset": offset})
}

func (h *NoteHandler) GetByID(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	noteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid note ID"})
	}

	note, err := h.noteService.Get(userID, noteID)
	if err != nil {
		return noteErrorResponse(c, err)
	}

	return c.JSON(note)
}

func (h *NoteHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	noteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid note ID"})
	}

	if err := h.noteService.Delete(userID, noteID); err != nil {
		return noteErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func noteErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNoteNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Voice note not found"})
	case errors.Is(err, services.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: true, Message: "You do not own this voice note"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Voice note operation failed"})
	}
}
