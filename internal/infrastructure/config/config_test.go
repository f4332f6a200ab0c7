package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8300", cfg.Server.Port)
	assert.Equal(t, "normal", cfg.Hotkey.Mode)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 5*time.Second, cfg.Poll.SlowInterval)
	assert.Equal(t, 3, cfg.Poll.FailureThreshold)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("HOTKEY_MODE", "kiosk")
	t.Setenv("POLL_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "kiosk", cfg.Hotkey.Mode)
	assert.Equal(t, time.Second, cfg.Poll.Interval)
	// Untouched values keep their defaults.
	assert.Equal(t, "xdg-open", cfg.Launchers.BrowserCommand)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	cfg := LoadOrDefault()
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
}
