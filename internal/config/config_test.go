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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DB_DRIVER", "DB_DSN", "CONFLICT_CONCURRENT_WINDOW", "CONFLICT_CONCURRENT_GAP",
		"CONFLICT_ACTIVE_WINDOW", "CONFLICT_REQUIRE_EXPECTED_VERSION", "VERSION_RETENTION", "JWT_SECRET",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Conflict.ConcurrentWindow)
	assert.Equal(t, int64(1), cfg.Conflict.ConcurrentGap)
	assert.Equal(t, 5*time.Minute, cfg.Conflict.ActiveWindow)
	assert.False(t, cfg.Conflict.RequireExpectedVersion)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: memory
conflict:
  concurrent_window: 2m
  concurrent_gap: 3
versions:
  retention: 20
`)
	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CONFLICT_CONCURRENT_GAP", "4")
	t.Setenv("CONFLICT_REQUIRE_EXPECTED_VERSION", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Conflict.ConcurrentWindow)
	assert.Equal(t, int64(4), cfg.Conflict.ConcurrentGap, "environment wins over the file")
	assert.True(t, cfg.Conflict.RequireExpectedVersion)
	assert.Equal(t, 20, cfg.Versions.Retention)
	assert.Equal(t, 5*time.Minute, cfg.Conflict.ActiveWindow, "keys absent from the file keep defaults")
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
conflict:
  concurent_window: 2m
`)
	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFLICT_ACTIVE_WINDOW", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Driver = "memory"
	cfg.Database.DSN = ""
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Versions.Retention = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Conflict.ConcurrentGap = 0
	assert.Error(t, cfg.Validate())
}
