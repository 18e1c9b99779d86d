package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 9090
  mode: debug
  read_timeout: 5s
cache:
  backend: redis
  ttl: 1h
  ttl_jitter: 0.2
  flush_on_start: true
redis:
  addr: "redis.internal:6379"
log:
  level: debug
  format: console
engine:
  weights:
    reliability: 0.35
    longevity: 0.35
    price: 0.20
    safety: 0.10
  thresholds:
    buy: 7.5
    maybe: 5.5
    pass: 3.0
  risk:
    safe: 0.85
    moderate: 0.55
    risky: 0.25
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 0.2, cfg.Cache.TTLJitter)
	assert.True(t, cfg.Cache.FlushOnStart)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 0.35, cfg.Engine.Weights.Reliability)
	assert.Equal(t, 7.5, cfg.Engine.Thresholds.Buy)
	assert.Equal(t, 0.55, cfg.Engine.Risk.Moderate)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "invalid_yaml: [")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, `
engine:
  weights:
    reliability: 0.9
    longevity: 0.9
    price: 0.9
`)
	_, err := Load(WithConfigPath(path))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigValidation)
	assert.Contains(t, err.Error(), "engine.weights")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("CARVERDICT_SERVER_PORT", "7070")
	t.Setenv("CARVERDICT_LOG_LEVEL", "warn")

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CARVERDICT_CACHE_BACKEND", "none")
	t.Setenv("CARVERDICT_METRICS_ENABLED", "false")
	t.Setenv("CARVERDICT_ENGINE_THRESHOLDS_BUY", "8")
	t.Setenv("CARVERDICT_ENGINE_THRESHOLDS_MAYBE", "6")
	t.Setenv("CARVERDICT_ENGINE_THRESHOLDS_PASS", "3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, CacheBackendNone, cfg.Cache.Backend)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 8.0, cfg.Engine.Thresholds.Buy)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	t.Setenv("CARVERDICT_CACHE_BACKEND", "disk")
	_, err := LoadFromEnv()
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(WithConfigPath("/nonexistent/carverdict.yaml")) })
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "missing.yaml"), func(*Config) {}, nil)
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	changed := make(chan *Config, 4)
	require.NoError(t, Watch(path, func(c *Config) { changed <- c }, nil))

	updated := validConfigYAML + "\nmetrics:\n  namespace: reloaded\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "reloaded", cfg.Metrics.Namespace)
	case <-time.After(5 * time.Second):
		t.Skip("file change notification not delivered on this platform")
	}
}
