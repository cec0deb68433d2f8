// Package repo implements the data persistence layer for issues, backed by
// GORM. This file contains database bootstrapping for SQLite (pure Go driver)
// and PostgreSQL, plus schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-issue-tracker/internal/config"
	"github.com/tbourn/go-issue-tracker/internal/domain"
)

// Open selects the store from cfg: PostgreSQL for a postgres DSN, SQLite
// otherwise. The returned handle has its pool tuned from cfg.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if cfg.IsPostgres() {
		db, err = OpenPostgres(cfg.URL, gormConfig(cfg.Debug))
	} else {
		db, err = openSQLite(cfg.SQLitePath(), gormConfig(cfg.Debug))
	}
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := openSQLite(path, gormConfig(false))
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func openSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gcfg)
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	return db, nil
}

// OpenPostgres connects to PostgreSQL using a URL or keyword/value DSN.
func OpenPostgres(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = gormConfig(false)
	}
	return gorm.Open(postgres.Open(dsn), gcfg)
}

// AutoMigrate creates or updates the issues and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Issue{},
		&domain.Idempotency{},
	)
}

// gormConfig stamps timestamps in UTC and keeps the SQL logger quiet unless
// debug is requested.
func gormConfig(debug bool) *gorm.Config {
	lvl := logger.Silent
	if debug {
		lvl = logger.Info
	}
	return &gorm.Config{
		Logger:  logger.Default.LogMode(lvl),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}
