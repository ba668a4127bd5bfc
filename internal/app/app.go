package app

import (
	"context"
	"io"
	"net/http"

	"family-calendar-go/internal/cache/redis"
	googlecal "family-calendar-go/internal/calendar/google"
	"family-calendar-go/internal/config"
	eventdomain "family-calendar-go/internal/domain/event"
	familydomain "family-calendar-go/internal/domain/family"
	membershipdomain "family-calendar-go/internal/domain/membership"
	profiledomain "family-calendar-go/internal/domain/profile"
	"family-calendar-go/internal/store"
	storefirestore "family-calendar-go/internal/store/firestore"
	storememory "family-calendar-go/internal/store/memory"
	storepostgres "family-calendar-go/internal/store/postgres"
	"family-calendar-go/internal/transport/httpserver"
	"family-calendar-go/internal/transport/httpserver/handler"
	"family-calendar-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	closers    []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg}

	log.Info("app: initializing store", "backend", cfg.Store.Backend)
	st, err := app.newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing calendar client")
	cal, err := googlecal.New(ctx, cfg.Calendar)
	if err != nil {
		return nil, err
	}

	cache := familydomain.NopCache()
	if cfg.Cache.Addr != "" {
		log.Info("app: initializing cache", "addr", cfg.Cache.Addr)
		redisCache := redis.New(cfg.Cache, log)
		app.closers = append(app.closers, redisCache)
		cache = redisCache
	}

	families := familydomain.NewCoordinator(st, cal, cache, log)
	membership := membershipdomain.NewManager(st, cal, cache, log)
	events := eventdomain.NewScheduler(st, cal, log)
	profiles := profiledomain.New(st, log)

	handlers := handler.New(families, membership, events, profiles, log)

	log.Info("app: initializing http server")
	router := httpserver.NewRouter(cfg, handlers, profiles, log)
	app.httpServer = httpserver.New(cfg, router)

	return app, nil
}

func (a *App) newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := storepostgres.Open(cfg.Store.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closerFunc(func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}))
		return storepostgres.New(db)
	case config.StoreBackendFirestore:
		st, err := storefirestore.New(ctx, cfg.Store.Firestore)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st)
		return st, nil
	default:
		return storememory.New(), nil
	}
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	var firstErr error
	for _, closer := range a.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
