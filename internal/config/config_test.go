package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 0, cfg.Engine.Workers)
	assert.Equal(t, int64(1024), cfg.Engine.MemoryLimitMB)
	assert.Equal(t, int64(1024<<20), cfg.Engine.MemoryLimitBytes())
	assert.Equal(t, 0, cfg.Engine.MaxRounds)
	assert.Equal(t, "file", cfg.Snapshot.Driver)
	assert.Equal(t, "riskzones.db", cfg.Snapshot.SQLitePath)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
engine:
  workers: 4
  max_rounds: 25
snapshot:
  driver: sqlite
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 25, cfg.Engine.MaxRounds)
	assert.Equal(t, "sqlite", cfg.Snapshot.Driver)
	// Defaults still apply for unset values
	assert.Equal(t, int64(1024), cfg.Engine.MemoryLimitMB)
	assert.Equal(t, "riskzones.db", cfg.Snapshot.SQLitePath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
snapshot:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RISKZONES_SNAPSHOT_DRIVER", "file")
	t.Setenv("RISKZONES_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "file", cfg.Snapshot.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("RISKZONES_ENGINE_MEMORY_LIMIT_MB", "64")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(64), cfg.Engine.MemoryLimitMB)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Engine.MemoryLimitMB = 1024
	cfg.Snapshot.Driver = "file"
	cfg.Snapshot.SQLitePath = "riskzones.db"
	cfg.Output.Format = "csv"
	return cfg
}

func TestValidate_Bounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Engine.Workers = -1
	cfg.Engine.MaxRounds = -2
	cfg.Snapshot.Driver = "redis"
	cfg.Output.Format = "parquet"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.workers must be >= 0")
	assert.Contains(t, err.Error(), "engine.max_rounds must be >= 0")
	assert.Contains(t, err.Error(), "snapshot.driver must be file or sqlite")
	assert.Contains(t, err.Error(), "output.format must be csv or xlsx")
}

func TestValidate_SQLiteNeedsPath(t *testing.T) {
	cfg := validDefaults()
	cfg.Snapshot.Driver = "sqlite"
	cfg.Snapshot.SQLitePath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite_path")

	cfg.Snapshot.SQLitePath = "snap.db"
	assert.NoError(t, cfg.Validate())
}
