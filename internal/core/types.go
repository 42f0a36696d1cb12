// Package core defines the domain types, collaborator interfaces, and error
// taxonomy shared by the TTS synthesis pipeline.
package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/feedtape/tts-service/internal/language"
)

// CharactersPerMinute is the fixed throughput constant used to estimate the
// spoken duration of synthesized text.
const CharactersPerMinute = 1000.0

// Tier identifies a user's subscription level.
type Tier string

// Supported subscription tiers.
const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// User is the slice of the account record the synthesis pipeline needs:
// who pays, and when their trial clock started ticking.
type User struct {
	ID               uuid.UUID `json:"id"`
	SubscriptionTier Tier      `json:"subscription_tier"`
	TrialStartedAt   time.Time `json:"trial_started_at"`
}

// UsageRecord tracks a user's consumption for one calendar day.
// Rows are mutated only by atomic increment.
type UsageRecord struct {
	UserID              uuid.UUID `json:"user_id"`
	Date                string    `json:"date"`
	CharactersUsed      int       `json:"characters_used"`
	ArticlesSynthesized int       `json:"articles_synthesized"`
}

// SynthesisResult is the outcome of one successful synthesize call.
type SynthesisResult struct {
	Audio           []byte        `json:"-"`
	Language        language.Code `json:"language"`
	CharCount       int           `json:"char_count"`
	DurationMinutes float64       `json:"duration_minutes"`
}

// NewSynthesisResult assembles a result from merged audio, applying the fixed
// characters-per-minute duration estimate.
func NewSynthesisResult(audio []byte, detected language.Code, charCount int) SynthesisResult {
	return SynthesisResult{
		Audio:           audio,
		Language:        detected,
		CharCount:       charCount,
		DurationMinutes: float64(charCount) / CharactersPerMinute,
	}
}

// UsageDate formats a point in time as the per-day usage bucket key.
func UsageDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
