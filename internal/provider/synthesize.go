package provider

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"

	"github.com/feedtape/tts-service/internal/core"
	"github.com/feedtape/tts-service/internal/language"
	"github.com/feedtape/tts-service/internal/tts/audio"
)

// SynthesizeAll converts each batch through the provider in original order,
// strictly sequentially, and merges the audio streams. Audio bytes are
// concatenated, so order is narrative order; there is no concurrency here on
// purpose. The first failing batch aborts the whole call without returning
// partial audio.
func SynthesizeAll(
	ctx context.Context,
	synthesizer core.SynthesisProvider,
	batches []string,
	lang language.Code,
	log *logger.Logger,
) ([]byte, error) {
	streams := make([][]byte, 0, len(batches))

	for batchIndex, batch := range batches {
		log.Info("Synthesizing batch %d/%d: size=%d provider=%s",
			batchIndex+1, len(batches), len(batch), synthesizer.Name())

		audioData, err := synthesizer.SynthesizeBatch(ctx, batch, lang)
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", batchIndex+1, err)
		}

		streams = append(streams, audioData)
	}

	merged, err := audio.MergeStreams(streams)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to merge audio streams: %w",
			core.ErrInternal, err)
	}

	log.Info("All batches synthesized: batch_count=%d total_audio_size=%d",
		len(batches), len(merged))

	return merged, nil
}
