// Package tts implements the synthesis orchestrator. It drives one article
// through the full pipeline: cache lookup, normalization, language detection,
// quota enforcement, batching, provider synthesis, and usage accounting.
package tts

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/feedtape/tts-service/internal/core"
	"github.com/feedtape/tts-service/internal/language"
	"github.com/feedtape/tts-service/internal/provider"
	"github.com/feedtape/tts-service/internal/quota"
	"github.com/feedtape/tts-service/internal/tts/text"
)

// Service orchestrates the synthesis pipeline. All collaborators are
// injected; a nil cache disables result memoization entirely.
type Service struct {
	users      core.UserStore
	usage      core.UsageStore
	guard      *quota.Guard
	detector   *language.Detector
	normalizer *text.Normalizer
	provider   core.SynthesisProvider
	cache      core.ResultCache
	log        *logger.Logger
}

// NewService assembles the orchestrator. Pass a nil cache to disable
// memoization.
func NewService(
	users core.UserStore,
	usage core.UsageStore,
	guard *quota.Guard,
	detector *language.Detector,
	synthesizer core.SynthesisProvider,
	resultCache core.ResultCache,
	log *logger.Logger,
) *Service {
	return &Service{
		users:      users,
		usage:      usage,
		guard:      guard,
		detector:   detector,
		normalizer: text.NewNormalizer(),
		provider:   synthesizer,
		cache:      resultCache,
		log:        log,
	}
}

// Synthesize converts one article's text to audio for the given user.
//
// The stage order is fixed: the cache is consulted first, then the text is
// normalized and its language detected, then the user's quota is checked
// before any provider call, and usage is charged only after every batch
// succeeded. A cache hit charges the user's quota exactly once, on the
// original synthesis; replays are free and skip the quota check.
func (s *Service) Synthesize(
	ctx context.Context,
	userID uuid.UUID,
	rawText string,
	link string,
) (core.SynthesisResult, error) {
	if s.cache != nil && link != "" {
		cached, hit := s.cache.Get(link)
		if hit {
			s.log.Info("Cache hit: user=%s link=%s char_count=%d",
				userID, link, cached.CharCount)

			return cached, nil
		}
	}

	normalized := s.normalizer.Normalize(rawText)
	if normalized == "" {
		return core.SynthesisResult{}, fmt.Errorf(
			"%w: no synthesizable text after normalization", core.ErrInvalidInput)
	}

	charCount := len(normalized)
	detected := s.detector.Detect(normalized)

	s.log.Info("Synthesis requested: user=%s language=%s char_count=%d link=%s",
		userID, detected, charCount, link)

	err := s.checkQuota(ctx, userID, charCount)
	if err != nil {
		return core.SynthesisResult{}, err
	}

	batches := text.SplitBatches(normalized, s.provider.MaxBatchSize())

	audioData, err := provider.SynthesizeAll(
		ctx, s.provider, batches, detected, s.log)
	if err != nil {
		return core.SynthesisResult{}, fmt.Errorf("synthesis failed: %w", err)
	}

	err = s.usage.IncrementUsage(ctx, userID, charCount)
	if err != nil {
		return core.SynthesisResult{}, fmt.Errorf(
			"%w: failed to record usage: %w", core.ErrDependency, err)
	}

	result := core.NewSynthesisResult(audioData, detected, charCount)

	if s.cache != nil && link != "" {
		s.cache.Set(link, result)
	}

	s.log.Info(
		"Synthesis complete: user=%s language=%s char_count=%d duration_minutes=%.1f audio_size=%d",
		userID, result.Language, result.CharCount,
		result.DurationMinutes, len(result.Audio))

	return result, nil
}

// checkQuota loads the user and today's consumption and applies the guard.
// It runs strictly before any provider call.
func (s *Service) checkQuota(ctx context.Context, userID uuid.UUID, requested int) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	record, err := s.usage.TodayUsage(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to load usage for user %s: %w",
			core.ErrDependency, userID, err)
	}

	err = s.guard.Check(user, record.CharactersUsed, requested)
	if err != nil {
		s.log.Warn("Quota rejected: user=%s used=%d requested=%d: %v",
			userID, record.CharactersUsed, requested, err)

		return err
	}

	return nil
}
