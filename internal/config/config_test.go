package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "tala")
	t.Setenv("DB_NAME", "tala_pos")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "development", cfg.Env)
	require.Equal(t, "disable", cfg.DB.SSLMode)
	require.Equal(t, "https://connectivitycheck.gstatic.com/generate_204", cfg.Sync.ProbeURL)
	require.Equal(t, 5*time.Second, cfg.Sync.ProbeTimeout)
	require.Equal(t, 3, cfg.Sync.MaxRetries)
	require.Equal(t, 30, cfg.Sync.RetentionDays)
	require.Equal(t, 5*time.Minute, cfg.GoldPrice.CacheTTL)
	require.Equal(t, 2*time.Minute, cfg.Worker.DrainInterval)
	require.Equal(t, 12*time.Hour, cfg.Worker.CleanupInterval)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYNC_MAX_RETRIES", "5")
	t.Setenv("SYNC_RETENTION_DAYS", "7")
	t.Setenv("SYNC_PROBE_TIMEOUT", "2s")
	t.Setenv("DRAIN_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Sync.MaxRetries)
	require.Equal(t, 7, cfg.Sync.RetentionDays)
	require.Equal(t, 2*time.Second, cfg.Sync.ProbeTimeout)
	require.Equal(t, 30*time.Second, cfg.Worker.DrainInterval)
}

func TestLoadRejectsBadValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYNC_MAX_RETRIES", "0")
	_, err := Load()
	require.Error(t, err)

	setRequiredEnv(t)
	t.Setenv("SYNC_MAX_RETRIES", "")
	t.Setenv("SYNC_PROBE_TIMEOUT", "soon")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRequiresDatabaseAndSecret(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	require.Error(t, err)

	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	require.Error(t, err)
}
