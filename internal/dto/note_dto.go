package dto

type CreateNoteRequest struct {
	Title           string `json:"title"`
	DurationSeconds int64  `json:"duration_seconds"`
	AudioURL        string `json:"audio_url"`
	Language        string `json:"language,omitempty"`
}
