// Package repositories provides the data access layer for the switch.
// It owns the PostgreSQL schema (transactions, ledger, blocklist) and the
// Redis profile cache connection.
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"upiswitch/internal/config"
	"upiswitch/internal/models"
	"upiswitch/internal/repositories/cache"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance used across the application.
var DB *gorm.DB

// Cache is the global profile cache instance.
var Cache *cache.ProfileCache

// DBConfig holds database connection pool configuration.
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// InitDB initializes the PostgreSQL connection, runs migrations and wires
// the Redis cache.
func InitDB() error {
	if err := initPostgres(); err != nil {
		return err
	}

	redisCfg := &cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	}
	Cache = cache.NewProfileCache(cache.NewRedisClient(redisCfg))

	if err := DB.AutoMigrate(
		&models.SwitchTransaction{},
		&models.LedgerEntry{},
		&models.LedgerSequence{},
		&models.SuspiciousEntity{},
	); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	// Seed the durable sequence counter if absent. FirstOrCreate keeps this
	// safe to run on every startup.
	seq := models.LedgerSequence{ID: ledgerSequenceRow}
	if err := DB.FirstOrCreate(&seq, models.LedgerSequence{ID: ledgerSequenceRow}).Error; err != nil {
		return fmt.Errorf("seed ledger sequence: %w", err)
	}

	return nil
}

func initPostgres() error {
	dsn := "host=" + config.GetEnv("DB_HOST", "localhost") +
		" user=" + config.GetEnv("DB_USER", "postgres") +
		" password=" + config.GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + config.GetEnv("DB_NAME", "switch_db") +
		" port=" + config.GetEnv("DB_PORT", "5432") +
		" sslmode=" + config.GetEnv("DB_SSLMODE", "disable")

	logLevel := logger.Warn
	if !config.IsProduction() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB handle: %w", err)
	}

	cfg := DBConfig{
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	slog.Info("connected to postgres", "db", config.GetEnv("DB_NAME", "switch_db"))

	DB = db
	return nil
}

// CloseDB releases the underlying connection pools.
func CloseDB() {
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Warn("failed to close database", "error", err)
			}
		}
	}
	if Cache != nil {
		if err := Cache.Close(); err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
}
