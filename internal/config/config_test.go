package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUESTLOG_TIMEZONE", "UTC")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3333", cfg.Addr())
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, 2, cfg.DispatchWorkers)
	assert.False(t, cfg.PushConfigured())

	wd, err := cfg.FirstWeekday()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("QUESTLOG_STORE", "json")
	t.Setenv("QUESTLOG_TIMEZONE", "Europe/Berlin")
	t.Setenv("QUESTLOG_WEEK_START", "Sunday")
	t.Setenv("FCM_DEVICE_TOKENS", "abc,def:ios")
	t.Setenv("FCM_CREDENTIALS_FILE", "/tmp/sa.json")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "json", cfg.Store)
	assert.Equal(t, []string{"abc", "def:ios"}, cfg.FCMDeviceTokens)
	assert.True(t, cfg.PushConfigured())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	wd, err := cfg.FirstWeekday()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("QUESTLOG_TIMEZONE", "Mars/Olympus")
	_, err := Load(zap.NewNop())
	assert.Error(t, err)
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("sat")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}
