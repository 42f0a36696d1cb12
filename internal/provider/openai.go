package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/book-expert/logger"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/feedtape/tts-service/internal/core"
	"github.com/feedtape/tts-service/internal/language"
)

// OpenAIMaxBatchSize is the per-request character limit of the OpenAI
// speech endpoint.
const OpenAIMaxBatchSize = 4096

const (
	openAIProviderName = "openai"
	defaultOpenAIModel = "tts-1"
)

// ErrAPIKeyEmpty indicates that no OpenAI API key was configured.
var ErrAPIKeyEmpty = errors.New("openai api key cannot be empty")

// OpenAIConfig holds the transport configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey string `toml:"api_key"`

	// BaseURL overrides the API endpoint, for compatible servers and tests.
	BaseURL string `toml:"base_url"`

	// Model selects the speech model ("tts-1" or "tts-1-hd").
	Model string `toml:"model"`

	// DefaultVoice, when set, pins one voice for all languages instead of
	// the per-language mapping.
	DefaultVoice string `toml:"default_voice"`
}

// OpenAI synthesizes speech through the OpenAI audio speech endpoint, MP3
// output, one voice per supported language unless a default voice is pinned.
type OpenAI struct {
	client       openai.Client
	model        string
	defaultVoice string
	log          *logger.Logger
}

// NewOpenAI creates an OpenAI provider from the given configuration.
func NewOpenAI(cfg OpenAIConfig, log *logger.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyEmpty
	}

	requestOptions := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAI{
		client:       openai.NewClient(requestOptions...),
		model:        model,
		defaultVoice: cfg.DefaultVoice,
		log:          log,
	}, nil
}

// Name identifies the backend.
func (o *OpenAI) Name() string {
	return openAIProviderName
}

// MaxBatchSize returns the OpenAI per-call character limit.
func (o *OpenAI) MaxBatchSize() int {
	return OpenAIMaxBatchSize
}

// SynthesizeBatch converts one batch of text to MP3 audio. Any transport or
// API failure surfaces as a single dependency error carrying the upstream
// message.
func (o *OpenAI) SynthesizeBatch(
	ctx context.Context,
	text string,
	lang language.Code,
) ([]byte, error) {
	voice, err := o.voiceFor(lang)
	if err != nil {
		return nil, err
	}

	o.log.Info("Calling OpenAI speech: model=%s voice=%s language=%s text_length=%d",
		o.model, voice, lang, len(text))

	response, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai speech call failed: %w",
			core.ErrDependency, err)
	}

	defer func() {
		closeErr := response.Body.Close()
		if closeErr != nil {
			o.log.Warn("Failed to close OpenAI response body: %v", closeErr)
		}
	}()

	audioData, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read openai audio stream: %w",
			core.ErrDependency, err)
	}

	o.log.Info("OpenAI batch synthesized: audio_size=%d", len(audioData))

	return audioData, nil
}

// voiceFor resolves the voice for a language, honoring the pinned default.
func (o *OpenAI) voiceFor(lang language.Code) (string, error) {
	if o.defaultVoice != "" {
		return o.defaultVoice, nil
	}

	voices, err := language.VoicesFor(lang)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	return voices.OpenAI, nil
}
