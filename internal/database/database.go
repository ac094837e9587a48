// Package database opens the connections the preference stores run on.
package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"study-buddy/preferences-backend/internal/config"
)

// OpenGorm connects gorm to the configured database
func OpenGorm(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.GetDatabaseURL())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.GetDatabaseURL())
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(logger), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	applyPool(cfg, sqlDB.SetMaxOpenConns, sqlDB.SetMaxIdleConns, sqlDB.SetConnMaxLifetime)

	return db, nil
}

// OpenSQLX connects sqlx to the configured database
func OpenSQLX(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var driverName string
	switch cfg.Driver {
	case config.DriverPostgres:
		driverName = "postgres"
	case config.DriverSQLite:
		driverName = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := sqlx.Connect(driverName, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	applyPool(cfg, db.SetMaxOpenConns, db.SetMaxIdleConns, db.SetConnMaxLifetime)

	return db, nil
}

func applyPool(cfg config.DatabaseConfig, maxOpen, maxIdle func(int), lifetime func(time.Duration)) {
	// sqlite gets a single connection so ":memory:" stays one database.
	if cfg.Driver == config.DriverSQLite {
		maxOpen(1)
		return
	}
	if cfg.MaxConnections > 0 {
		maxOpen(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		maxIdle(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		lifetime(cfg.MaxLifetime)
	}
}
