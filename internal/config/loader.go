package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "CARVERDICT"

var (
	// ErrConfigFileNotFound is returned when the configured file does not exist.
	ErrConfigFileNotFound = errors.New("config: file not found")
	// ErrConfigParseError is returned when the file cannot be parsed.
	ErrConfigParseError = errors.New("config: parse error")
	// ErrConfigValidation is returned when the merged configuration is invalid.
	ErrConfigValidation = errors.New("config: validation failed")
)

// envKeys lists every leaf key so that environment overrides reach Unmarshal
// even when the key is absent from the file.
var envKeys = []string{
	"server.host", "server.port", "server.mode", "server.read_timeout",
	"server.write_timeout", "server.max_body_size", "server.shutdown_timeout",
	"server.rate_limit", "server.rate_burst",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size", "redis.min_idle_conns",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout", "redis.key_prefix",
	"cache.backend", "cache.max_entries", "cache.ttl", "cache.ttl_jitter", "cache.flush_on_start",
	"log.level", "log.format", "log.output",
	"metrics.enabled", "metrics.namespace", "metrics.path",
	"engine.weights.reliability", "engine.weights.longevity", "engine.weights.price", "engine.weights.safety",
	"engine.thresholds.buy", "engine.thresholds.maybe", "engine.thresholds.pass",
	"engine.risk.safe", "engine.risk.moderate", "engine.risk.risky",
	"engine.reference_data_path",
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
}

// WithConfigPath reads the YAML file at path before applying environment
// overrides.  Without it Load uses the environment only.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// newViper builds a Viper instance with YAML file type, the CARVERDICT_ env
// prefix and a "." → "_" key replacer so that "engine.weights.price" resolves
// to CARVERDICT_ENGINE_WEIGHTS_PRICE.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	v.SetDefault("metrics.enabled", true)
	return v
}

// Load merges the optional YAML file with CARVERDICT_* environment overrides,
// applies defaults for unset fields and validates the result.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	if o.path != "" {
		if err := readFile(v, o.path); err != nil {
			return nil, err
		}
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from CARVERDICT_* environment
// variables, with no config file.
//
//	CARVERDICT_<SECTION>_<FIELD>   e.g.  CARVERDICT_CACHE_BACKEND, CARVERDICT_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return Load()
}

func readFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrConfigFileNotFound, path, err)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrConfigParseError, path, err)
	}
	return nil
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file changes.  It is meant for hot-reloading safe settings such
// as the log level; callers apply only that subset at runtime.  Invalid
// revisions are reported to onError, if set, and otherwise skipped.
//
// Watch is non-blocking; viper manages the fsnotify goroutine.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	if err := readFile(v, configPath); err != nil {
		return err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is Load that panics on any error.  Use it only in main().
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
