package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mantonx/viewra/internal/config"
	"github.com/mantonx/viewra/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Initialize opens the database connection configured via internal/config
// and runs the core schema migrations. Only the first call does any work;
// later calls are no-ops, also when that first call failed, in which case
// the connection stays unset.
func Initialize() {
	once.Do(func() {
		cfg := config.Get().Database

		dialector, err := dialectorFor(cfg)
		if err != nil {
			logger.Error("failed to configure database dialector", []logger.Field{logger.Err("error", err)})
			return
		}

		conn, err := gorm.Open(dialector, &gorm.Config{})
		if err != nil {
			logger.Error("failed to open database connection", []logger.Field{logger.Err("error", err)})
			return
		}

		sqlDB, err := conn.DB()
		if err == nil {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}

		if err := conn.AutoMigrate(
			&User{},
			&MediaLibrary{},
		); err != nil {
			logger.Error("failed to run core migrations", []logger.Field{logger.Err("error", err)})
			return
		}

		db = conn
		logger.Info("database initialized", []logger.Field{logger.String("type", cfg.Type)})
	})
}

// GetDB returns the shared database handle, or nil if Initialize has not
// succeeded yet.
func GetDB() *gorm.DB {
	return db
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case "postgres":
		if cfg.URL == "" {
			return nil, fmt.Errorf("database.url is required for postgres")
		}
		return postgres.Open(cfg.URL), nil
	case "sqlite", "":
		path := cfg.DatabasePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "viewra.db")
		}
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
