package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone.String())
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.False(t, cfg.IsLive(), "simulate unless asked")
	assert.False(t, cfg.APIEnabled())
	assert.False(t, cfg.CalDAVEnabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "FILE")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("TELEGRAM_MODE", "live")
	t.Setenv("TELEGRAM_BOT_TOKEN", "1:abc")
	t.Setenv("API_USERNAME", "admin")
	t.Setenv("API_PASSWORD", "secret")
	t.Setenv("WEBHOOK_URL", "https://ferry.example.com/")
	t.Setenv("MORNING_TIME", "06:15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.Equal(t, "UTC", cfg.Timezone.String())
	assert.True(t, cfg.IsLive())
	assert.Equal(t, "1:abc", cfg.TelegramToken)
	assert.True(t, cfg.APIEnabled())
	assert.Equal(t, "https://ferry.example.com", cfg.WebhookURL)
	assert.Equal(t, "06:15", cfg.MorningTime)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"live without token": {"TELEGRAM_MODE": "live"},
		"unknown mode":       {"TELEGRAM_MODE": "carrier-pigeon"},
		"unknown driver":     {"STORAGE_DRIVER": "redis"},
		"bad timezone":       {"TIMEZONE": "Mars/Olympus"},
		"bad clock":          {"EVENING_TIME": "25:00"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 30, m)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
