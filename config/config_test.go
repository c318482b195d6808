package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Agent.Model)
	assert.Equal(t, 4096, cfg.Agent.MaxTokens)
	assert.Equal(t, 60, cfg.Scheduler.TickIntervalSeconds)
	assert.Equal(t, 30, cfg.Heartbeat.IntervalMinutes)
	assert.True(t, cfg.Proactive.Enabled)
	assert.Equal(t, 8, cfg.Proactive.ActiveHoursStart)
	assert.Equal(t, 22, cfg.Proactive.ActiveHoursEnd)
	assert.Equal(t, 20, cfg.Delivery.RatePerMinute)
	assert.NotEmpty(t, cfg.Database.Path)
	assert.NotEmpty(t, cfg.Heartbeat.Path)

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		v := viper.New()
		SetDefaults(v)
		var cfg Config
		require.NoError(t, v.Unmarshal(&cfg))
		return cfg
	}

	cfg := base()
	cfg.Scheduler.TickIntervalSeconds = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Heartbeat.IntervalMinutes = -5
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Proactive.ActiveHoursStart = 24
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Proactive.ActiveHoursEnd = 25
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Proactive.ActiveHoursEnd = 24
	assert.NoError(t, cfg.Validate(), "end=24 means midnight and is allowed")

	cfg = base()
	cfg.Delivery.RatePerMinute = -1
	assert.Error(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/tmp/test-vigil.db"

[scheduler]
tick_interval_seconds = 10

[proactive]
enabled = false
active_hours_start = 9
active_hours_end = 18
timezone = "America/New_York"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test-vigil.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Scheduler.TickIntervalSeconds)
	assert.False(t, cfg.Proactive.Enabled)
	assert.Equal(t, 9, cfg.Proactive.ActiveHoursStart)
	assert.Equal(t, "America/New_York", cfg.Proactive.Timezone)

	// Sections absent from the file keep their defaults
	assert.Equal(t, 30, cfg.Heartbeat.IntervalMinutes)
}

func TestLoadFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scheduler]\ntick_interval_seconds = -2\n"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, WriteDefault(path))

	// The written file must round-trip through the loader
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Scheduler.TickIntervalSeconds)

	assert.Error(t, WriteDefault(path), "existing config must not be clobbered")
}
