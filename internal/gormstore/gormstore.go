// Package gormstore implements the tracker repositories on gorm, for running
// against MySQL (or SQLite through the cgo driver) instead of the embedded
// modernc database.
package gormstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/goalpost/internal/model"
	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	EngineSQLite = "sqlite"
	EngineMySQL  = "mysql"
)

// Open connects to the engine and migrates the tables. For sqlite, target is
// a file path; for mysql, a DSN.
func Open(engine, target string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch engine {
	case EngineSQLite:
		dialector = sqlite.Open(target)
	case EngineMySQL:
		dsn, err := MySQLDSN(target)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("gormstore: unknown engine %q", engine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: connect %s: %w", engine, err)
	}

	if engine == EngineSQLite && target == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("gormstore: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// MySQLDSN parses dsn and forces the options the row mapping relies on:
// DATETIME columns scanned into time.Time, in UTC.
func MySQLDSN(dsn string) (string, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("gormstore: parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&goalRow{}, &categoryRow{}, &taskRow{}); err != nil {
		return fmt.Errorf("gormstore: auto-migrate: %w", err)
	}
	return nil
}

// translateInsertErr maps a primary key collision onto model.ErrDuplicateID.
// Drivers that gorm cannot translate are matched on their message.
func translateInsertErr(err error, id string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "Duplicate entry") {
		return fmt.Errorf("%w: %s", model.ErrDuplicateID, id)
	}
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
