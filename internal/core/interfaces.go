package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/feedtape/tts-service/internal/language"
)

// UserStore looks up account records for quota decisions.
type UserStore interface {
	// FindByID returns the user or ErrUserNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
}

// UsageStore tracks per-user, per-day consumption counters.
type UsageStore interface {
	// TodayUsage returns the current day's record for the user. A user with
	// no consumption today gets a zero-valued record, not an error.
	TodayUsage(ctx context.Context, id uuid.UUID) (UsageRecord, error)

	// IncrementUsage adds the character count and one article to today's
	// record as an atomic upsert-add. Concurrent increments for the same
	// user must not lose updates.
	IncrementUsage(ctx context.Context, id uuid.UUID, characters int) error
}

// SynthesisProvider is a speech-synthesis backend reachable through a uniform
// per-batch contract. Implementations own their voice mapping and per-call
// size limit, perform exactly one network call per batch, and surface any
// transport or API failure wrapped in ErrDependency without retrying.
type SynthesisProvider interface {
	// Name identifies the backend for logging and configuration.
	Name() string

	// MaxBatchSize returns the provider's per-call character limit.
	MaxBatchSize() int

	// SynthesizeBatch converts one batch of text in the given language to
	// audio bytes.
	SynthesizeBatch(ctx context.Context, text string, lang language.Code) ([]byte, error)
}

// ResultCache memoizes full synthesis results keyed by the originating
// article link. Implementations must be safe for concurrent use and refresh
// an entry's idle timer on every hit.
type ResultCache interface {
	Get(link string) (SynthesisResult, bool)
	Set(link string, result SynthesisResult)
}

// ObjectStore is a key-value blob store for synthesized audio.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}
