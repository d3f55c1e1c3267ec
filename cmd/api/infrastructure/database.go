package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"user-wire-service/internal/adapter/db/postgres"
	"user-wire-service/internal/config"
	"user-wire-service/pkg/logger"
)

// NewDatabase opens the connection pool and makes sure the users table exists.
func NewDatabase(ctx context.Context, cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.NewGormLogger(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)

	db, err := gorm.Open(pgdriver.Open(cfg.DB.DSN()), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := prepare(ctx, db, cfg.DB, l); err != nil {
		return nil, err
	}

	return db, nil
}

// prepare applies pool limits and bootstraps the schema on an opened pool.
// The pool is closed when either step fails.
func prepare(ctx context.Context, db *gorm.DB, cfg config.DatabaseConfig, l *zap.Logger) error {
	if err := ConfigurePool(db, cfg); err != nil {
		_ = CloseDatabase(db)
		return err
	}

	l.Info("database pool configured",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.ConnMaxLifetime),
		zap.Int("conn_max_idle_time_seconds", cfg.ConnMaxIdleTime),
	)

	if err := postgres.Migrate(ctx, db); err != nil {
		_ = CloseDatabase(db)
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return nil
}

// ConfigurePool applies the pool limits to the underlying sql.DB.
func ConfigurePool(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
