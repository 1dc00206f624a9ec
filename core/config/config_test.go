package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Unsplash: UnsplashConfig{AccessKey: "key"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "https://api.unsplash.com", cfg.Unsplash.BaseURL)
	assert.Equal(t, 50, cfg.Unsplash.MaxRequests)
	assert.Equal(t, 3600, cfg.Unsplash.WindowSeconds)
	assert.Equal(t, 30, cfg.Unsplash.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Unsplash.SearchPerPage)
	assert.Equal(t, 512, cfg.Sessions.Capacity)
	assert.Equal(t, 24*60, cfg.Sessions.TTLMinutes)
}

func TestNormalizeRequiresSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	assert.Error(t, Normalize(cfg))

	cfg = validConfig()
	cfg.Unsplash.AccessKey = ""
	assert.Error(t, Normalize(cfg))
}

func TestNormalizeRunModes(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)

	cfg = validConfig()
	cfg.Telegram.RunMode = "webhook"
	assert.Error(t, Normalize(cfg), "webhook mode without listener settings")

	cfg = validConfig()
	cfg.Telegram.RunMode = "webhook"
	cfg.Webhook = WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443}
	assert.NoError(t, Normalize(cfg))

	cfg = validConfig()
	cfg.Telegram.RunMode = "carrier-pigeon"
	assert.Error(t, Normalize(cfg))
}

func TestNormalizeFloodExclusions(t *testing.T) {
	cfg := validConfig()
	cfg.Flood.ExcludeUpdates = []string{"Callback", " message "}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []string{"callback", "message"}, cfg.Flood.ExcludeUpdates)

	cfg = validConfig()
	cfg.Flood.ExcludeUpdates = []string{"sticker"}
	assert.Error(t, Normalize(cfg))
}
