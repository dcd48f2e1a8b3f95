package database

import (
	"fmt"
	"time"

	"github.com/resona/rental-api/internal/config"
	"github.com/resona/rental-api/internal/domain/entity"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// Open connects to the database selected by cfg.Driver
func Open(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	if cfg.Driver == "sqlite" {
		return NewSQLiteDB(cfg.Path, debug)
	}
	return NewPostgresDB(cfg, debug)
}

// NewPostgresDB creates a new PostgreSQL database connection, retrying while
// the server is still starting up
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormLogger(debug)}

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), gormCfg)
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Warn("database not reachable, retrying")
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.WithFields(log.Fields{"host": cfg.Host, "database": cfg.Name}).Info("connected to PostgreSQL")
	return db, nil
}

// NewSQLiteDB opens a sqlite database, used for local runs and tests
func NewSQLiteDB(path string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger(debug)})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	log.WithField("path", path).Info("opened sqlite database")
	return db, nil
}

func gormLogger(debug bool) logger.Interface {
	if debug {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Warn)
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		// Back-office accounts
		&entity.User{},
		&entity.Role{},
		&entity.Permission{},

		// Catalog
		&entity.Category{},
		&entity.Product{},

		// Quotes and orders
		&entity.QuoteRequest{},
		&entity.Order{},
		&entity.OrderItem{},

		// System entities
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}
