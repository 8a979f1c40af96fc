package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"modqueue/internal/bootstrap/config"
	"modqueue/internal/bootstrap/database"
	"modqueue/internal/bootstrap/logging"
	cacheinfra "modqueue/internal/infrastructure/cache"
	"modqueue/internal/infrastructure/events"
	sqliterepo "modqueue/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "modqueue/internal/infrastructure/persistence/sqlite/uow"
	"modqueue/internal/ports"
	"modqueue/internal/usecase/moderation"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideLogger),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewRecordRepository,
			fx.As(new(ports.RecordRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(events.NewHub),
	fx.Provide(providePublisher),
	fx.Provide(providePolicy),
	fx.Provide(provideService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideLogger(cfg config.Config) (*slog.Logger, error) {
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	return logger.With(slog.String("app", cfg.App.Name), slog.String("env", cfg.App.Env)), nil
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB, logger *slog.Logger, hub *events.Hub) *App {
	return &App{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Hub:    hub,
	}
}

func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	switch strings.ToLower(cfg.Cache.Driver) {
	case "", "sqlite":
		return cacheinfra.NewSQLiteCache(db), nil
	case "none":
		return cacheinfra.NopCache{}, nil
	case "redis":
		redisCache, err := cacheinfra.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return redisCache.Close()
			},
		})
		logging.Info(logCtx, "redis cache connected")
		return redisCache, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
}

func providePublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config, hub *events.Hub) (ports.EventPublisher, error) {
	sinks := []events.Sink{
		{Name: "log", Publisher: events.LogPublisher{}},
		{Name: "websocket", Publisher: hub},
	}

	if url := strings.TrimSpace(cfg.Events.NATSURL); url != "" {
		natsPublisher, err := events.NewNATSPublisher(url, cfg.Events.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				natsPublisher.Close()
				return nil
			},
		})
		sinks = append(sinks, events.Sink{Name: "nats", Publisher: natsPublisher})
		logging.Info(
			logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
			"nats publisher connected",
			slog.String("subject_prefix", cfg.Events.SubjectPrefix),
		)
	}

	return events.NewFanoutPublisher(sinks...), nil
}

func providePolicy(cfg config.Config) (moderation.Policy, error) {
	return moderation.LoadPolicy(cfg.Moderation.PolicyFile)
}

type serviceParams struct {
	fx.In

	Config    config.Config
	Repo      ports.RecordRepository
	UoW       ports.UnitOfWork
	Cache     ports.Cache
	Publisher ports.EventPublisher
	Policy    moderation.Policy
}

func provideService(p serviceParams) *moderation.Service {
	return moderation.NewService(p.Repo, p.UoW, p.Cache, p.Publisher, moderation.Options{
		Policy:          p.Policy,
		BulkConcurrency: p.Config.Moderation.BulkConcurrency,
		StatusTTL:       p.Config.Cache.TTL,
		RelayBatch:      p.Config.Events.RelayBatch,
	})
}
