// Package config_test tests the configuration loading for the tts-service.
package config_test

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedtape/tts-service/internal/config"
	"github.com/feedtape/tts-service/internal/quota"
)

const sampleTOML = `
[nats]
url = "nats://127.0.0.1:4222"
synthesize_subject = "tts.synthesize"
audio_object_store_bucket = "tts-audio"

[tts_service]
provider = "polly"
fallback_language = "en"
timeout_seconds = 120

[polly]
region = "us-east-1"

[openai]
api_key = "sk-test"
model = "tts-1-hd"
default_voice = "nova"

[quota]
free_daily_characters = 20000
pro_daily_characters = 200000
trial_days = 7

[cache]
enabled = true
capacity = 256
idle_ttl_minutes = 30

[paths]
base_logs_dir = "/var/log/tts-service"
`

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	err := toml.Unmarshal([]byte(sampleTOML), &cfg)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "tts.synthesize", cfg.NATS.SynthesizeSubject)
	assert.Equal(t, "tts-audio", cfg.NATS.AudioObjectStoreBucket)

	assert.Equal(t, config.ProviderPolly, cfg.TTS.Provider)
	assert.Equal(t, "en", cfg.TTS.FallbackLanguage)
	assert.Equal(t, 120, cfg.TTS.TimeoutSeconds)

	assert.Equal(t, "us-east-1", cfg.Polly.Region)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "tts-1-hd", cfg.OpenAI.Model)
	assert.Equal(t, "nova", cfg.OpenAI.DefaultVoice)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 256, cfg.Cache.Capacity)
	assert.Equal(t, 30, cfg.Cache.IdleTTLMinutes)
	assert.Equal(t, "/var/log/tts-service", cfg.Paths.BaseLogsDir)
}

func TestQuotaConfig_PolicyDefaults(t *testing.T) {
	t.Parallel()

	empty := config.QuotaConfig{}
	assert.Equal(t, quota.DefaultPolicy(), empty.Policy())

	custom := config.QuotaConfig{FreeDailyCharacters: 5000}
	policy := custom.Policy()
	assert.Equal(t, 5000, policy.FreeDailyCharacters)
	assert.Equal(t, quota.DefaultProDailyCharacters, policy.ProDailyCharacters)
	assert.Equal(t, quota.DefaultTrialDays, policy.TrialDays)
}

func TestConfigValidate_UnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.TTS.Provider = "espeak"

	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrUnknownProvider)
}
