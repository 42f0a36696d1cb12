// Package config provides the configuration structure for the tts-service.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"

	"github.com/feedtape/tts-service/internal/provider"
	"github.com/feedtape/tts-service/internal/quota"
)

// Provider names accepted by [tts_service] provider.
const (
	ProviderPolly  = "polly"
	ProviderOpenAI = "openai"
)

// ErrUnknownProvider indicates a provider name outside the supported set.
var ErrUnknownProvider = errors.New("unknown synthesis provider")

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	SynthesizeSubject      string `toml:"synthesize_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
}

// TTSServiceConfig selects the synthesis backend and pipeline behavior.
type TTSServiceConfig struct {
	Provider         string `toml:"provider"`
	FallbackLanguage string `toml:"fallback_language"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// QuotaConfig holds tier limits and the trial window. Zero values fall back
// to the production defaults.
type QuotaConfig struct {
	FreeDailyCharacters int `toml:"free_daily_characters"`
	ProDailyCharacters  int `toml:"pro_daily_characters"`
	TrialDays           int `toml:"trial_days"`
}

// Policy builds the quota policy, applying defaults for unset fields.
func (q QuotaConfig) Policy() quota.Policy {
	policy := quota.DefaultPolicy()

	if q.FreeDailyCharacters > 0 {
		policy.FreeDailyCharacters = q.FreeDailyCharacters
	}

	if q.ProDailyCharacters > 0 {
		policy.ProDailyCharacters = q.ProDailyCharacters
	}

	if q.TrialDays > 0 {
		policy.TrialDays = q.TrialDays
	}

	return policy
}

// CacheConfig controls the synthesis result cache.
type CacheConfig struct {
	Enabled        bool `toml:"enabled"`
	Capacity       int  `toml:"capacity"`
	IdleTTLMinutes int  `toml:"idle_ttl_minutes"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS   NATSConfig            `toml:"nats"`
	TTS    TTSServiceConfig      `toml:"tts_service"`
	Polly  provider.PollyConfig  `toml:"polly"`
	OpenAI provider.OpenAIConfig `toml:"openai"`
	Quota  QuotaConfig           `toml:"quota"`
	Cache  CacheConfig           `toml:"cache"`
	Paths  PathsConfig           `toml:"paths"`
}

// Load loads the configuration for the tts-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	validationErr := cfg.Validate()
	if validationErr != nil {
		return nil, validationErr
	}

	return &cfg, nil
}

// Validate checks fields that have no safe default.
func (c *Config) Validate() error {
	switch c.TTS.Provider {
	case ProviderPolly, ProviderOpenAI:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.TTS.Provider)
	}
}
