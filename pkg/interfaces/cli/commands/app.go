package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/taechang/production-core/pkg/application/services/availability"
	"github.com/taechang/production-core/pkg/application/services/bom"
	"github.com/taechang/production-core/pkg/application/services/production"
	"github.com/taechang/production-core/pkg/application/services/yield"
	"github.com/taechang/production-core/pkg/domain/repositories"
	"github.com/taechang/production-core/pkg/infrastructure/cache/redis"
	"github.com/taechang/production-core/pkg/infrastructure/config"
	"github.com/taechang/production-core/pkg/infrastructure/events"
	"github.com/taechang/production-core/pkg/infrastructure/repositories/csv"
	"github.com/taechang/production-core/pkg/infrastructure/repositories/memory"
	"github.com/taechang/production-core/pkg/infrastructure/repositories/postgres"
	"go.uber.org/zap"
)

// backend is what both the in-memory and the PostgreSQL stores provide
type backend interface {
	repositories.ItemRepository
	repositories.BOMRepository
	repositories.CoilSpecRepository
	repositories.OperationRepository
	repositories.StockLedger
}

// App holds the wired services for one CLI invocation
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Resolver   *bom.Resolver
	Manager    *bom.Manager
	Checker    *availability.Checker
	Estimator  *yield.Estimator
	Coils      *yield.CoilCalculator
	Production *production.Service
	Events     *events.InMemoryEventStore

	store   backend
	db      *postgres.DB
	closers []func() error
}

// NewApp wires the services. With dataDir set the CSV files in it are loaded
// into an in-memory store and nothing is persisted; otherwise the configured
// PostgreSQL database is used.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, dataDir string) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}

	if dataDir != "" {
		store := memory.NewStore(0)
		summary, err := csv.NewLoader().LoadDirectory(ctx, dataDir, store)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario %s: %w", dataDir, err)
		}
		logger.Debug("scenario loaded",
			zap.String("dir", dataDir),
			zap.Int("items", summary.Items),
			zap.Int("edges", summary.Edges),
			zap.Int("coil_specs", summary.CoilSpecs),
			zap.Int("operations", summary.Operations),
		)
		app.store = store
	} else {
		db, err := postgres.Connect(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.closers = append(app.closers, db.Close)
		app.store = postgres.NewStore(db.DB)
	}

	app.Events = events.NewInMemoryEventStore(logger)
	if err := app.Events.Subscribe(events.AllEventTypes, events.NewLoggingHandler(logger)); err != nil {
		return nil, err
	}

	cache := app.explosionCache(ctx)

	app.Resolver = bom.NewResolver(app.store, app.store, logger)
	app.Resolver.SetMaxDepth(cfg.BOM.MaxDepth)
	app.Resolver.SetCache(cache)

	app.Manager = bom.NewManager(app.store, app.store, cache, logger)
	app.Manager.SetEventStore(app.Events)

	app.Checker = availability.NewChecker(app.store, app.Resolver)
	app.Estimator = yield.NewEstimator(app.store, logger)
	app.Coils = yield.NewCoilCalculator(app.store, app.store)
	app.Production = production.NewService(app.store, app.store, app.Resolver, app.Events, logger)
	return app, nil
}

// explosionCache returns the Redis cache when enabled and reachable, the
// process-local cache otherwise
func (a *App) explosionCache(ctx context.Context) bom.ExplosionCache {
	if !a.Config.Redis.Enabled {
		return bom.NewMemoryCache()
	}
	client, err := redis.NewClient(ctx, a.Config.Redis)
	if err != nil {
		a.Logger.Warn("redis unavailable, using in-process explosion cache", zap.Error(err))
		return bom.NewMemoryCache()
	}
	a.closers = append(a.closers, client.Close)
	return redis.NewExplosionCache(client, a.Config.Redis.Prefix, a.Config.Redis.CacheTTL)
}

// Close waits for event handlers and releases connections
func (a *App) Close() error {
	if a.Events != nil {
		a.Events.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
