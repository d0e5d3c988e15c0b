package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 4, cfg.PipelineWorkers)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairsurvey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
database_dsn: "file.db"
log_level: debug
openai:
  model: gpt-4o
  timeout: 45s
pipeline_workers: 2
monitor:
  enabled: false
  interval: 30s
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ADDR", ":7000")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AI_TIMEOUT", "not-a-duration")
	t.Setenv("STUCK_THRESHOLD", "2m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr, "env wins over file")
	assert.Equal(t, "file.db", cfg.DatabaseDSN)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 45*time.Second, cfg.OpenAI.Timeout, "invalid env keeps the previous value")
	assert.Equal(t, 2, cfg.PipelineWorkers)
	assert.False(t, cfg.Monitor.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 2*time.Minute, cfg.Monitor.Threshold)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_EnvToggles(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENABLE_STUCK_MONITOR", "0")
	t.Setenv("PIPELINE_WORKERS", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Monitor.Enabled)
	assert.Equal(t, 4, cfg.PipelineWorkers)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DatabaseDSN = ""
	cfg.PipelineWorkers = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_dsn is required")
	assert.Contains(t, err.Error(), "pipeline_workers must be positive")

	assert.NoError(t, Default().Validate())
}
