package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/timmy/querydesk/internal/config"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

// InitDB opens the preference database and migrates its tables.
// Parameters:
//   - cfg: store configuration selecting the driver and its location.
//   - log: destination for slow query and error logs; nil uses the default.
// Returns:
//   - *gorm.DB: initialized database handle.
//   - error: non-nil if connection or migration fails.
func InitDB(cfg *config.StoreConfig, log *logger.Logger) (*gorm.DB, error) {
	if log == nil {
		log = logger.GetDefault()
	}
	log = log.WithComponent("store")

	gormConfig := &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var db *gorm.DB
	var err error

	switch cfg.Driver {
	case "postgres":
		db, err = initPostgres(cfg, gormConfig)
	case "sqlite", "":
		db, err = initSQLite(cfg, gormConfig)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&domain.Preference{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.WithField("driver", cfg.Driver).Debug("preference store ready")
	return db, nil
}

// initPostgres connects with the simple protocol so transaction poolers work.
func initPostgres(cfg *config.StoreConfig, gormConfig *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

func initSQLite(cfg *config.StoreConfig, gormConfig *gorm.Config) (*gorm.DB, error) {
	path := cfg.Path
	if path == "" {
		path = "./data/querydesk.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	return db, nil
}

// Close releases the underlying connection pool.
// Parameters:
//   - db: handle returned by InitDB.
// Returns:
//   - error: non-nil if the pool cannot be reached or closed.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	return sqlDB.Close()
}
