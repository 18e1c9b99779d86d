// Package config defines the configuration structures for carverdict.  No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"time"

	"github.com/turtacn/carverdict/internal/domain/survival"
	"github.com/turtacn/carverdict/internal/domain/verdict"
	"github.com/turtacn/carverdict/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimit is the sustained per-client request rate; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// RedisConfig holds Redis connection parameters.  Only used when the lifespan
// cache backend is "redis".
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// CacheConfig selects the year-lifespan cache backend.
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"` // "memory" | "redis" | "none"
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
	// TTLJitter spreads redis expiries by this fraction of TTL.
	TTLJitter float64 `mapstructure:"ttl_jitter"`
	// FlushOnStart drops cached lifespans for the current catalog version
	// when the server starts.
	FlushOnStart bool `mapstructure:"flush_on_start"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// EngineConfig holds the valuation engine tunables.
type EngineConfig struct {
	Weights           verdict.Weights         `mapstructure:"weights"`
	Thresholds        verdict.Thresholds      `mapstructure:"thresholds"`
	Risk              survival.RiskThresholds `mapstructure:"risk"`
	ReferenceDataPath string                  `mapstructure:"reference_data_path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Engine  EngineConfig  `mapstructure:"engine"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Newf(errors.CodeConfigInvalid, "server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Newf(errors.CodeConfigInvalid, "server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.MaxBodySize < 0 {
		return errors.Newf(errors.CodeConfigInvalid, "server.max_body_size must be >= 0, got %d", c.Server.MaxBodySize)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.New(errors.CodeConfigInvalid, "server.rate_limit and server.rate_burst must be >= 0")
	}

	// Cache
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendNone:
	case CacheBackendRedis:
		if c.Redis.Addr == "" {
			return errors.New(errors.CodeConfigInvalid, "redis.addr is required when cache.backend is redis")
		}
		if c.Redis.DB < 0 {
			return errors.Newf(errors.CodeConfigInvalid, "redis.db must be >= 0, got %d", c.Redis.DB)
		}
	default:
		return errors.Newf(errors.CodeConfigInvalid, "cache.backend %q is invalid; expected memory|redis|none", c.Cache.Backend)
	}
	if c.Cache.MaxEntries < 0 {
		return errors.Newf(errors.CodeConfigInvalid, "cache.max_entries must be >= 0, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.TTLJitter < 0 || c.Cache.TTLJitter >= 1 {
		return errors.Newf(errors.CodeConfigInvalid, "cache.ttl_jitter must be in [0, 1), got %g", c.Cache.TTLJitter)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.CodeConfigInvalid, "log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.Newf(errors.CodeConfigInvalid, "log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Engine
	if err := c.Engine.Weights.Validate(); err != nil {
		return errors.Wrap(err, errors.CodeConfigInvalid, "engine.weights")
	}
	if err := c.Engine.Thresholds.Validate(); err != nil {
		return errors.Wrap(err, errors.CodeConfigInvalid, "engine.thresholds")
	}
	if err := c.Engine.Risk.Validate(); err != nil {
		return errors.Wrap(err, errors.CodeConfigInvalid, "engine.risk")
	}

	return nil
}
