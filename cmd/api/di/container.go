package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-wire-service/cmd/api/infrastructure"
	"user-wire-service/internal/adapter/db/postgres"
	ginhandler "user-wire-service/internal/adapter/gin/handler"
	"user-wire-service/internal/adapter/stats"
	"user-wire-service/internal/adapter/wire"
	"user-wire-service/internal/config"
	"user-wire-service/internal/usecase/user"
	redisclient "user-wire-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           *gorm.DB
	RedisClient  *redisclient.Client
	Store        *postgres.UserStore
	UserUC       *user.Usecase
	Recorder     stats.Recorder
	WireHandler  *wire.Handler
	AdminHandler *ginhandler.AdminHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	return build(cfg, l, db, rdb), nil
}

// build wires the adapters around an already opened database and optional Redis client.
func build(cfg *config.Config, l *zap.Logger, db *gorm.DB, rdb *redisclient.Client) *Container {
	var recorder stats.Recorder = stats.NopRecorder{}
	if rdb != nil {
		recorder = stats.NewRedisRecorder(rdb.Client, cfg.Redis.StatsKey, l)
	}

	store := postgres.NewUserStore(db, l)
	userUC := user.New(store, l)

	wireHandler := wire.NewHandler(userUC, recorder, wire.HandlerConfig{
		ReadBufferBytes: cfg.Server.ReadBufferBytes,
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		IOTimeout:       time.Duration(cfg.Server.IOTimeoutSeconds) * time.Second,
	}, l)

	adminHandler := ginhandler.NewAdminHandler(store, recorder, cfg.Logger.ServiceName, l)

	return &Container{
		Config:       cfg,
		Logger:       l,
		DB:           db,
		RedisClient:  rdb,
		Store:        store,
		UserUC:       userUC,
		Recorder:     recorder,
		WireHandler:  wireHandler,
		AdminHandler: adminHandler,
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
