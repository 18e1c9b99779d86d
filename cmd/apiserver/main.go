// Command apiserver serves the valuation engine over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/turtacn/carverdict/internal/config"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to configuration file (environment only when empty)")
	port := pflag.Int("port", 0, "HTTP port (overrides config)")
	pflag.Parse()

	var opts []config.LoadOption
	if *configPath != "" {
		opts = append(opts, config.WithConfigPath(*configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting carverdict API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.Int("port", cfg.Server.Port),
		logging.String("cache_backend", cfg.Cache.Backend),
	)

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", logging.Err(err))
	}
	defer app.Close()

	if *configPath != "" {
		watchLogLevel(*configPath, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.server.Run(ctx); err != nil {
		logger.Error("server stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	lc := logging.LogConfig{Level: level, Format: cfg.Format}
	if cfg.Output != "" {
		lc.OutputPaths = []string{cfg.Output}
	}
	return logging.NewLogger(lc)
}

// watchLogLevel applies log level changes from the config file at runtime.
// Every other setting needs a restart.
func watchLogLevel(path string, logger logging.Logger) {
	setter, ok := logger.(logging.LevelSetter)
	if !ok {
		return
	}
	err := config.Watch(path, func(cfg *config.Config) {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			logger.Warn("ignoring invalid log level", logging.String("level", cfg.Log.Level))
			return
		}
		setter.SetLevel(level)
		logger.Info("log level reloaded", logging.String("level", string(level)))
	}, func(err error) {
		logger.Warn("config reload rejected", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}
