// Package bootstrap wires configuration into the running services.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nulzo/unillm/internal/analytics"
	"github.com/nulzo/unillm/internal/catalog"
	"github.com/nulzo/unillm/internal/cli"
	"github.com/nulzo/unillm/internal/config"
	"github.com/nulzo/unillm/internal/modeldata"
	"github.com/nulzo/unillm/internal/store"
	"github.com/nulzo/unillm/internal/store/cache"
	"github.com/nulzo/unillm/internal/store/cache/memory"
	"github.com/nulzo/unillm/internal/store/cache/redis"
	"github.com/nulzo/unillm/internal/store/sqlite"
	"github.com/nulzo/unillm/pkg/pricing"
	"go.uber.org/zap"
)

type App struct {
	Repo      store.Repository
	Cache     cache.CacheService
	Catalog   *catalog.Service
	Ingestor  analytics.Ingestor
	Analytics analytics.Service

	closers []func() error
}

// Build opens the store and cache and loads the catalog. The ingestor is
// created but not started.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{}

	repo, err := sqlite.NewSQLiteStorage(cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", cfg.Store.DSN, err)
	}
	app.Repo = repo
	app.closers = append(app.closers, repo.Close)

	app.Cache = newCache(ctx, cfg.Redis, log, app)

	calc := pricing.NewCalculator(pricing.WithLogger(log), pricing.WithStrict(cfg.Pricing.Strict))
	svc, err := catalog.NewService(ctx, modeldata.Models(),
		catalog.WithStore(repo),
		catalog.WithCache(app.Cache, cfg.Redis.TTL),
		catalog.WithCatalogDir(cfg.Pricing.CatalogDir),
		catalog.WithCalculator(calc),
		catalog.WithLogger(log),
	)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Catalog = svc

	app.Ingestor = analytics.NewIngestor(log, repo, analytics.IngestorOptions{
		BatchSize:     cfg.Analytics.BatchSize,
		FlushInterval: cfg.Analytics.FlushInterval,
	})
	app.Analytics = analytics.NewService(repo)
	return app, nil
}

func newCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger, app *App) cache.CacheService {
	if !cfg.Enabled {
		return memory.NewMemoryCache()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rc, err := redis.NewRedisCache(pingCtx, redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err != nil {
		log.Warn(fmt.Sprintf("%s %s",
			cli.WarningSign(),
			cli.Stylize("Redis unavailable, falling back to in-memory pricing cache", cli.Yellow),
		), zap.String("addr", cfg.Addr), zap.Error(err))
		return memory.NewMemoryCache()
	}
	app.closers = append(app.closers, rc.Close)
	log.Info("Connected to redis", zap.String("addr", cfg.Addr))
	return rc
}

// Close releases the store and cache connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
