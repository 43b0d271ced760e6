package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/config"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/cache"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/registry"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/synchronizer"
)

// app holds the process-wide collaborators shared by serve and run.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	pool     *pgxpool.Pool // nil with the memory store
	redis    *cache.Redis  // nil without REDIS_URL
	memCache *cache.Memory // set when redis is not
	store    *synchronizer.Store
	registry *registry.Registry
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, log: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	mappings, err := config.LoadMappings(cfg.MappingFile)
	if err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		a.store = synchronizer.NewMemoryStore()
		logger.Warn().Msg("using in-memory store, synced data is lost on exit")
	default:
		a.pool, err = db.NewPool(ctx, db.PoolConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
			AppName:  "ehr-sync",
		})
		if err != nil {
			return nil, err
		}
		a.store = synchronizer.NewPostgresStore(a.pool)
		logger.Info().Msg("connected to database")
	}

	var store cache.Store
	if cfg.RedisURL == "" {
		a.memCache = cache.NewMemory()
		store = a.memCache
	} else {
		a.redis, err = cache.NewRedis(ctx, cfg.RedisURL, "ehr-sync:")
		if err != nil {
			return nil, err
		}
		store = a.redis
		logger.Info().Msg("practitioner cache backed by redis")
	}

	a.registry, err = registry.Build(mappings, registry.Deps{
		Store:         a.store,
		Cache:         store,
		CacheTTL:      cfg.PractitionerCacheTTL,
		Workers:       cfg.SyncWorkers,
		Logger:        logger,
		FetchTimeout:  cfg.FetchTimeout,
		FetchRetryMax: cfg.FetchRetryMax,
	})
	if err != nil {
		return nil, fmt.Errorf("build source registry: %w", err)
	}
	logger.Info().Strs("sources", a.registry.Sources()).Msg("source registry ready")
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing redis")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
