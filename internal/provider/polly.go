// Package provider implements the speech-synthesis backends. Each variant
// owns a fixed voice mapping from the canonical language table and a fixed
// engine selection, performs exactly one network call per batch, and never
// retries internally.
package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/book-expert/logger"

	"github.com/feedtape/tts-service/internal/core"
	"github.com/feedtape/tts-service/internal/language"
)

// PollyMaxBatchSize is the per-call character limit for Polly synthesis.
const PollyMaxBatchSize = 3000

const pollyProviderName = "polly"

// pollyAPI is the slice of the Polly client the provider uses. The seam
// allows tests to substitute a mock without a network.
type pollyAPI interface {
	SynthesizeSpeech(
		ctx context.Context,
		params *polly.SynthesizeSpeechInput,
		optFns ...func(*polly.Options),
	) (*polly.SynthesizeSpeechOutput, error)
}

// PollyConfig holds the transport configuration for the Polly backend.
// Credentials come from the standard AWS resolution chain.
type PollyConfig struct {
	Region string `toml:"region"`
}

// Polly synthesizes speech through AWS Polly using the neural engine and
// MP3 output, one voice per supported language.
type Polly struct {
	client pollyAPI
	log    *logger.Logger
}

// NewPolly creates a Polly provider from the ambient AWS configuration.
func NewPolly(ctx context.Context, cfg PollyConfig, log *logger.Logger) (*Polly, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &Polly{
		client: polly.NewFromConfig(awsCfg),
		log:    log,
	}, nil
}

// NewPollyWithClient creates a Polly provider with a custom client.
// This constructor is primarily for testing purposes.
func NewPollyWithClient(client pollyAPI, log *logger.Logger) *Polly {
	return &Polly{
		client: client,
		log:    log,
	}
}

// Name identifies the backend.
func (p *Polly) Name() string {
	return pollyProviderName
}

// MaxBatchSize returns Polly's per-call character limit.
func (p *Polly) MaxBatchSize() int {
	return PollyMaxBatchSize
}

// SynthesizeBatch converts one batch of text to MP3 audio with the neural
// voice mapped to the language. Any transport or API failure surfaces as a
// single dependency error carrying the upstream message.
func (p *Polly) SynthesizeBatch(
	ctx context.Context,
	text string,
	lang language.Code,
) ([]byte, error) {
	voices, err := language.VoicesFor(lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	p.log.Info("Calling Polly synthesize speech: language=%s voice=%s text_length=%d",
		lang, voices.Polly, len(text))

	output, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       pollytypes.EngineNeural,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         aws.String(text),
		VoiceId:      pollytypes.VoiceId(voices.Polly),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: polly synthesize speech failed: %w",
			core.ErrDependency, err)
	}

	defer func() {
		closeErr := output.AudioStream.Close()
		if closeErr != nil {
			p.log.Warn("Failed to close Polly audio stream: %v", closeErr)
		}
	}()

	audioData, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read polly audio stream: %w",
			core.ErrDependency, err)
	}

	p.log.Info("Polly batch synthesized: audio_size=%d", len(audioData))

	return audioData, nil
}
