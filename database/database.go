package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lshigami/mocktest/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the configured SQL database. DATABASE_DRIVER selects
// postgres (default) or sqlite.
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			log.Info().Msg("Closing database connection")
			return sqlDB.Close()
		},
	})
	return db, nil
}

// Open connects without lifecycle hooks; the CLI and tests use it directly.
func Open(cfg config.Database) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "mocktest.db"
		}
		db, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers; one connection also keeps :memory: databases shared.
		sqlDB.SetMaxOpenConns(1)
		log.Info().Str("path", path).Msg("Connected to sqlite database")
		return db, nil
	case "", "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
		db, err := gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres %s:%s/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
		log.Info().Str("host", cfg.Host).Str("name", cfg.Name).Msg("Connected to postgres database")
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Driver)
	}
}

// NewRedis returns nil when REDIS_ADDR is unset; callers treat a nil client
// as "no cache" and read from the database instead.
func NewRedis(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, leaderboard cache disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// The leaderboard falls back to SQL on every redis error.
				log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis ping failed")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}
