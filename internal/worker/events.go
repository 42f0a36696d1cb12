package worker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/feedtape/tts-service/internal/language"
)

// Event validation errors.
var (
	// ErrRequestIDEmpty indicates a request event without a request ID.
	ErrRequestIDEmpty = errors.New("request id cannot be empty")

	// ErrUserIDEmpty indicates a request event without a user ID.
	ErrUserIDEmpty = errors.New("user id cannot be empty")

	// ErrTextEmpty indicates a request event without text to synthesize.
	ErrTextEmpty = errors.New("text cannot be empty")
)

// SynthesisRequestedEvent asks the worker to synthesize one article.
type SynthesisRequestedEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`

	// Link is the article's canonical URL, used as the cache key.
	// Optional; an empty link bypasses the result cache.
	Link string `json:"link,omitempty"`
}

// Validate checks the request event for required fields.
func (e *SynthesisRequestedEvent) Validate() error {
	if e.RequestID == uuid.Nil {
		return ErrRequestIDEmpty
	}

	if e.UserID == uuid.Nil {
		return fmt.Errorf("%w: request %s", ErrUserIDEmpty, e.RequestID)
	}

	if e.Text == "" {
		return fmt.Errorf("%w: request %s", ErrTextEmpty, e.RequestID)
	}

	return nil
}

// SynthesisCompletedEvent reports a successful synthesis. The audio itself
// lives in the object store under AudioKey.
type SynthesisCompletedEvent struct {
	RequestID       uuid.UUID     `json:"request_id"`
	AudioKey        string        `json:"audio_key"`
	Language        language.Code `json:"language"`
	CharCount       int           `json:"char_count"`
	DurationMinutes float64       `json:"duration_minutes"`
}

// SynthesisFailedEvent reports a failed synthesis with its taxonomy kind so
// callers can map it to a transport response.
type SynthesisFailedEvent struct {
	RequestID    uuid.UUID `json:"request_id"`
	ErrorKind    string    `json:"error_kind"`
	ErrorMessage string    `json:"error_message"`
}
