package gormstore

import (
	"strings"
	"testing"

	"github.com/dukerupert/goalpost/internal/storetest"
)

func TestRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Repos {
		t.Helper()
		db, err := Open(EngineSQLite, ":memory:")
		if err != nil {
			t.Fatalf("open test db: %v", err)
		}
		t.Cleanup(func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		})
		return storetest.Repos{
			Goals:      NewGoalStore(db),
			Categories: NewCategoryStore(db),
			Tasks:      NewTaskStore(db),
		}
	})
}

func TestOpenUnknownEngine(t *testing.T) {
	if _, err := Open("postgres", "x"); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := MySQLDSN("goalpost:s3cret@tcp(db.internal:3306)/goalpost")
	if err != nil {
		t.Fatalf("MySQLDSN: %v", err)
	}
	if !strings.HasPrefix(dsn, "goalpost:s3cret@tcp(db.internal:3306)/goalpost?") {
		t.Errorf("dsn = %q", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("dsn missing parseTime=true: %s", dsn)
	}

	if _, err := MySQLDSN("not a dsn"); err == nil {
		t.Error("expected error for malformed dsn")
	}
	if _, err := Open(EngineMySQL, "not a dsn"); err == nil {
		t.Error("Open should reject a malformed dsn before connecting")
	}
}
