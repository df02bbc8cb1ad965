// Package app wires the task store, identity provider and their
// collaborators into a ready-to-embed application object.
package app

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/internal/config"
	boltInfra "github.com/taskdeck/taskdeck/internal/infrastructure/bolt"
	"github.com/taskdeck/taskdeck/internal/services"
	"github.com/taskdeck/taskdeck/internal/services/lifecycle"
	"github.com/taskdeck/taskdeck/pkg/logger"
	"github.com/taskdeck/taskdeck/pkg/notify"
	boltRepo "github.com/taskdeck/taskdeck/repository/bolt"
	"github.com/taskdeck/taskdeck/usecase"
	"github.com/taskdeck/taskdeck/usecase/identity"
	"github.com/taskdeck/taskdeck/usecase/tasks"
)

// Options lets the embedding application replace collaborators the core
// treats as external: the notification sink and the clock.
type Options struct {
	Notifier usecase.Notifier
	Clock    tasks.Clock
}

// App is the composed application.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    *tasks.Store
	Identity *identity.Provider

	manager *lifecycle.Manager
}

// New loads configuration from the environment and assembles the full
// application: storage, repositories, identity provider, task store and the
// background recurrence sweeper. The store follows identity changes: login
// loads the user's snapshot, logout clears the collection.
func New(opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Printf("logger error, using no-op: %v", err)
		zapLogger = zap.NewNop()
	}

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Register("logger", func(ctx context.Context) error {
		_ = zapLogger.Sync()
		return nil
	})

	db, err := boltInfra.Open(cfg.Storage.Path)
	if err != nil {
		zapLogger.Error("failed to open storage", zap.Error(err))
		return nil, err
	}
	manager.Register("storage", func(ctx context.Context) error {
		return db.Close()
	})

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLog(zapLogger)
	}

	snapshotRepo := boltRepo.NewSnapshotRepository(db)
	userRepo := boltRepo.NewUserRepository(db)
	sessionRepo := boltRepo.NewSessionRepository(db, cfg.Session.TTL)

	store := tasks.NewStore(snapshotRepo, notifier, zapLogger, opts.Clock)

	provider := identity.New(userRepo, sessionRepo, notifier, zapLogger, identity.Config{
		JWTSecret:  cfg.Session.JWTSecret,
		JWTIssuer:  cfg.Session.JWTIssuer,
		SessionTTL: cfg.Session.TTL,
	})
	provider.Subscribe(func(userID string) {
		if userID == "" {
			store.Clear()
			return
		}
		if err := store.Load(context.Background(), userID); err != nil {
			zapLogger.Error("failed to load tasks for user",
				zap.String("user_id", userID), zap.Error(err))
		}
	})

	if cfg.Sweeper.Enabled {
		sweeper, err := services.NewSweeper(store, zapLogger, cfg.Sweeper.Schedule)
		if err != nil {
			zapLogger.Error("invalid sweep schedule", zap.Error(err))
			return nil, err
		}
		sweeper.Start()
		manager.Register("sweeper", func(ctx context.Context) error {
			sweeper.Stop(ctx)
			return nil
		})
	}

	return &App{
		Config:   cfg,
		Logger:   zapLogger,
		Store:    store,
		Identity: provider,
		manager:  manager,
	}, nil
}

// Shutdown stops background work and closes storage. Safe to call once.
func (a *App) Shutdown(ctx context.Context) error {
	return a.manager.Shutdown(ctx)
}
