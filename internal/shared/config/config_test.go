package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerAppliesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8, cfg.Agents.MaxConcurrent)
	assert.Equal(t, 30, cfg.Agents.HeartbeatIntervalSecs)
	assert.Equal(t, 9876, cfg.Daemon.Port)
	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
	assert.Equal(t, 300, cfg.Kanban.PlanningPoker.RoundDurationSeconds)
	assert.Equal(t, 16384, cfg.Providers.DefaultMaxTokens)
	assert.Equal(t, "balanced", cfg.Security.ActiveExecutionProfile)
}

func TestManagerSetReloadsConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	m, err := NewManager()
	require.NoError(t, err)

	require.NoError(t, m.Set("agents.max_concurrent", 16))
	assert.Equal(t, 16, m.GetConfig().Agents.MaxConcurrent)
}

func TestManagerAllSettingsRetainsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	m, err := NewManager()
	require.NoError(t, err)

	require.NoError(t, m.Set("experimental.some_future_flag", true))

	settings := m.AllSettings()
	experimental, ok := settings["experimental"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, experimental["some_future_flag"])
}

func TestConfigDurationHelpers(t *testing.T) {
	cfg := &Config{
		Agents:   Agents{HeartbeatIntervalSecs: 30},
		Security: Security{AutoLockTimeoutMins: 15},
	}
	assert.Equal(t, 30.0, cfg.HeartbeatInterval().Seconds())
	assert.Equal(t, 15.0, cfg.AutoLockTimeout().Minutes())
}
