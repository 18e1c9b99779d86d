package main

import (
	"context"
	"time"

	"github.com/turtacn/carverdict/internal/application/assessment"
	"github.com/turtacn/carverdict/internal/config"
	"github.com/turtacn/carverdict/internal/domain/lifespan"
	"github.com/turtacn/carverdict/internal/domain/reference"
	"github.com/turtacn/carverdict/internal/infrastructure/database/redis"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/prometheus"
	httpapi "github.com/turtacn/carverdict/internal/interfaces/http"
	"github.com/turtacn/carverdict/internal/interfaces/http/handlers"
	"github.com/turtacn/carverdict/internal/interfaces/http/middleware"
)

// app holds the wired server and the resources it must release.
type app struct {
	server *httpapi.Server
	redis  *redis.Client
	logger logging.Logger
}

func newApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	a := &app{logger: logger}

	var (
		collector prometheus.MetricsCollector
		metrics   *prometheus.AppMetrics
		err       error
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, err
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	catalog, err := reference.Load(cfg.Engine.ReferenceDataPath)
	if err != nil {
		return nil, err
	}
	prometheus.RecordCatalog(metrics, catalog.Version(), catalog.VehicleCount())
	logger.Info("reference catalog loaded",
		logging.String("version", catalog.Version()),
		logging.Int("vehicles", catalog.VehicleCount()),
	)

	cache, err := a.lifespanCache(cfg, catalog.Version())
	if err != nil {
		return nil, err
	}

	svc, err := assessment.NewService(catalog, assessment.Config{
		Weights:    cfg.Engine.Weights,
		Thresholds: cfg.Engine.Thresholds,
		Risk:       cfg.Engine.Risk,
	},
		assessment.WithLogger(logger.Named("assessment")),
		assessment.WithMetrics(metrics),
		assessment.WithLifespanCache(cache),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	healthOpts := []handlers.HealthOption{
		handlers.WithHealthMetrics(metrics),
		handlers.WithCatalogVersion(catalog.Version()),
	}
	if a.redis != nil {
		healthOpts = append(healthOpts, handlers.WithCheckers(handlers.CheckFunc{
			Component: "redis",
			Fn:        a.redis.Ping,
		}))
	}

	routerCfg := httpapi.RouterConfig{
		AssessmentHandler: handlers.NewAssessmentHandler(svc, logger, cfg.Server.MaxBodySize),
		HealthHandler:     handlers.NewHealthHandler(version, healthOpts...),
		Logger:            logger.Named("http"),
		Metrics:           metrics,
		MetricsCollector:  collector,
		MetricsPath:       cfg.Metrics.Path,
	}
	if cfg.Server.RateLimit > 0 {
		routerCfg.RateLimit = middleware.DefaultRateLimitConfig(cfg.Server.RateLimit, cfg.Server.RateBurst)
		routerCfg.RateLimiter = middleware.NewClientLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, routerCfg.RateLimit.IdleTTL)
	}
	router := httpapi.NewRouter(routerCfg)
	a.server = httpapi.NewServer(cfg.Server, router, logger)
	return a, nil
}

// lifespanCache builds the configured year-lifespan cache backend.
func (a *app) lifespanCache(cfg *config.Config, catalogVersion string) (lifespan.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendNone:
		return lifespan.NopCache{}, nil
	case config.CacheBackendRedis:
		client, err := redis.NewClient(&redis.RedisConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, a.logger.Named("redis"))
		if err != nil {
			return nil, err
		}
		a.redis = client

		kv := redis.NewRedisCache(client, a.logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Cache.TTL),
			redis.WithTTLJitter(cfg.Cache.TTLJitter),
		)
		lc := redis.NewLifespanCache(kv, a.logger,
			redis.WithLifespanTTL(cfg.Cache.TTL),
			redis.WithCatalogVersion(catalogVersion),
		)
		if cfg.Cache.FlushOnStart {
			a.flushLifespans(lc, catalogVersion)
		}
		return lc, nil
	default:
		return lifespan.NewMemoryCache(cfg.Cache.MaxEntries), nil
	}
}

// flushLifespans drops cached lifespans for catalogVersion.  Failure is
// logged; stale entries then expire with their TTL.
func (a *app) flushLifespans(lc *redis.LifespanCache, catalogVersion string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := lc.Invalidate(ctx)
	if err != nil {
		a.logger.Warn("lifespan cache flush failed", logging.String("catalog_version", catalogVersion), logging.Err(err))
		return
	}
	a.logger.Info("lifespan cache flushed",
		logging.String("catalog_version", catalogVersion),
		logging.Int64("deleted", n),
	)
}

// Close releases external connections.
func (a *app) Close() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("redis close failed", logging.Err(err))
	}
	a.redis = nil
}
