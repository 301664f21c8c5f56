package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rewards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, ModeMock, cfg.Mode)
	assert.Equal(t, 5, cfg.Engine.MaxWorkers)
	assert.Equal(t, 15*time.Second, cfg.Engine.SearchTimeout)
	assert.Equal(t, 24.0, cfg.Engine.MaxLayoverHours)
	assert.Equal(t, 1, cfg.Engine.LayoverDayOffset)
	assert.Equal(t, "include", cfg.Engine.UnknownLayover)
	assert.Equal(t, 3, cfg.Engine.MaxLegOptions)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, "flights", cfg.Postgres.Table)
	assert.Contains(t, cfg.Providers, "mock_offers")
	assert.Contains(t, cfg.Providers, "postgres")
}

func TestLoad_FileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
mode: Hybrid
engine:
  maxWorkers: 2
  searchTimeout: 3s
  unknownLayover: exclude
providers:
  mock_offers:
    enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, ModeHybrid, cfg.Mode)
	assert.Equal(t, 2, cfg.Engine.MaxWorkers)
	assert.Equal(t, 3*time.Second, cfg.Engine.SearchTimeout)
	assert.Equal(t, "exclude", cfg.Engine.UnknownLayover)
	assert.False(t, cfg.ProviderEnabled("mock_offers"))
	assert.True(t, cfg.ProviderEnabled("postgres"))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("REWARDS_MODE", "live")
	t.Setenv("REWARDS_MAX_WORKERS", "9")

	cfg, err := Load(writeConfig(t, "mode: mock\nengine:\n  maxWorkers: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, ModeLive, cfg.Mode)
	assert.Equal(t, 9, cfg.Engine.MaxWorkers)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := Load(writeConfig(t, "mode: turbo\n"))
	assert.ErrorContains(t, err, "unknown mode")

	_, err = Load(writeConfig(t, "engine:\n  layoverDayOffset: 3\n"))
	assert.ErrorContains(t, err, "layoverDayOffset")

	_, err = Load(writeConfig(t, "engine:\n  unknownLayover: maybe\n"))
	assert.ErrorContains(t, err, "unknownLayover")

	_, err = Load(writeConfig(t, "cache:\n  backend: memcached\n"))
	assert.ErrorContains(t, err, "cache.backend")
}

func TestWithMode(t *testing.T) {
	cfg := &Config{Mode: ModeMock}
	assert.Equal(t, ModeLive, cfg.WithMode("LIVE").Mode)
	assert.Equal(t, ModeLive, cfg.WithMode("").Mode)
	assert.Equal(t, ModeLive, cfg.WithMode("bogus").Mode)
}

func TestProviderCredentials(t *testing.T) {
	cfg := &Config{Providers: defaultProviders()}

	t.Setenv("REWARDS_DATABASE_URL", "")
	assert.False(t, cfg.ProviderHasCredentials("postgres"))
	assert.Equal(t, []string{"database url (REWARDS_DATABASE_URL)"}, cfg.MissingCredentials("postgres"))

	t.Setenv("REWARDS_DATABASE_URL", "postgres://localhost/rewards")
	assert.True(t, cfg.ProviderHasCredentials("postgres"))
	assert.Empty(t, cfg.MissingCredentials("postgres"))

	assert.True(t, cfg.ProviderHasCredentials("mock_offers"))
	assert.False(t, cfg.ProviderHasCredentials("unknown"))
}
