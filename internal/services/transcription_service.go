package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vocanote/vocanote-backend/internal/config"
	"github.com/vocanote/vocanote-backend/internal/models"
)

type sttResponse struct {
	Text string `json:"text"`
}

// TranscriptionService sends recorded audio to the configured
// speech-to-text provider and stores the transcript on the note.
type TranscriptionService struct {
	cfg   *config.Config
	notes *NoteService
}

func NewTranscriptionService(cfg *config.Config, notes *NoteService) *TranscriptionService {
	return &TranscriptionService{cfg: cfg, notes: notes}
}

// Transcribe runs the provider call and records the outcome. A failed call
// marks the note failed; the note itself is never lost.
func (s *TranscriptionService) Transcribe(noteID uuid.UUID, filename string, audio []byte, language string) {
	text, err := s.callProvider(filename, audio, language)
	if err != nil {
		slog.Error("transcription failed", "note_id", noteID.String(), "error", err)
		if err := s.notes.SetTranscript(noteID, "", models.TranscriptionFailed); err != nil {
			slog.Error("failed to mark transcription failed", "note_id", noteID.String(), "error", err)
		}
		return
	}

	if err := s.notes.SetTranscript(noteID, text, models.TranscriptionCompleted); err != nil {
		slog.Error("failed to store transcript", "note_id", noteID.String(), "error", err)
	}
}

func (s *TranscriptionService) callProvider(filename string, audio []byte, language string) (string, error) {
	if s.cfg.STTAPIKey == "" {
		return "", errors.New("no speech-to-text provider configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", s.cfg.STTModel); err != nil {
		return "", err
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	timeout := s.cfg.STTTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	req, err := http.NewRequest(http.MethodPost, s.cfg.STTAPIURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.cfg.STTAPIKey)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed sttResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("invalid provider response: %w", err)
	}
	return parsed.Text, nil
}
