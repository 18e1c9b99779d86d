package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/carverdict/internal/config"
	"github.com/turtacn/carverdict/internal/domain/verdict"
	"github.com/turtacn/carverdict/pkg/errors"
)

// validConfig returns a Config that passes Validate.
func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	t.Parallel()
	for _, p := range []int{-1, 65536, 100000} {
		p := p
		t.Run("", func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			cfg.Server.Port = p
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
			assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
		})
	}
}

func TestConfig_Validate_RateLimit(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.RateLimit = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit")
}

func TestConfig_Validate_InvalidServerMode(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.Mode = "production"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
}

func TestConfig_Validate_CacheBackend(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Cache.Backend = "memcached"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")

	cfg = validConfig()
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Redis.Addr = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.addr")

	cfg = validConfig()
	cfg.Cache.Backend = config.CacheBackendRedis
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.Cache.Backend = config.CacheBackendNone
	cfg.Redis.Addr = ""
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_CacheTTLJitter(t *testing.T) {
	t.Parallel()

	for _, jitter := range []float64{-0.1, 1, 2} {
		cfg := validConfig()
		cfg.Cache.TTLJitter = jitter
		err := cfg.Validate()
		require.Error(t, err, "jitter %g", jitter)
		assert.Contains(t, err.Error(), "cache.ttl_jitter")
	}

	cfg := validConfig()
	cfg.Cache.TTLJitter = 0.25
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_Log(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Log.Level = "trace"
	assert.ErrorContains(t, cfg.Validate(), "log.level")

	cfg = validConfig()
	cfg.Log.Format = "text"
	assert.ErrorContains(t, cfg.Validate(), "log.format")
}

func TestConfig_Validate_EngineWeights(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Engine.Weights = verdict.Weights{Reliability: 0.5, Longevity: 0.5, Price: 0.5}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.weights")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidWeights))
}

func TestConfig_Validate_EngineThresholds(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Engine.Thresholds = verdict.Thresholds{Buy: 4, Maybe: 6, Pass: 3}
	assert.ErrorContains(t, cfg.Validate(), "engine.thresholds")
}

func TestConfig_Validate_EngineRisk(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Engine.Risk.Moderate = 0.9
	assert.ErrorContains(t, cfg.Validate(), "engine.risk")
}
