package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.UserID != "local" {
		t.Errorf("user_id = %q, want %q", cfg.UserID, "local")
	}
	if cfg.Storage.Engine != EngineSQLite {
		t.Errorf("engine = %q, want %q", cfg.Storage.Engine, EngineSQLite)
	}
	if cfg.Storage.DBPath != "goalpost.db" {
		t.Errorf("db_path = %q, want %q", cfg.Storage.DBPath, "goalpost.db")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.Backup.Enabled() {
		t.Error("backup should be disabled without a bucket")
	}
	if cfg.Backup.RetentionDays != 30 {
		t.Errorf("retention_days = %d, want 30", cfg.Backup.RetentionDays)
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
addr: 127.0.0.1:9000
user_id: alice
log_level: debug
storage:
  engine: mysql
  mysql_dsn: "goalpost@tcp(localhost:3306)/goalpost?parseTime=true"
backup:
  bucket: snapshots
  passphrase: hunter2
`)
	cfg, err := Parse(data)
	if err == nil {
		t.Fatalf("expected backup with mysql engine to fail, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "backup requires the sqlite engine") {
		t.Errorf("err = %v", err)
	}

	data = []byte(`
addr: 127.0.0.1:9000
user_id: alice
storage:
  engine: mysql
  mysql_dsn: "goalpost@tcp(localhost:3306)/goalpost?parseTime=true"
`)
	cfg, err = Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.UserID != "alice" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Storage.Engine != EngineMySQL {
		t.Errorf("engine = %q, want %q", cfg.Storage.Engine, EngineMySQL)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	_, err := Parse([]byte(`
log_level: loud
storage:
  engine: mysql
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"mysql_dsn is required", `log_level "loud"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestParseUnknownEngine(t *testing.T) {
	_, err := Parse([]byte("storage:\n  engine: postgres\n"))
	if err == nil || !strings.Contains(err.Error(), "storage.engine") {
		t.Errorf("err = %v, want storage.engine error", err)
	}
}

func TestBackupRequiresPassphrase(t *testing.T) {
	_, err := Parse([]byte("backup:\n  bucket: snaps\n"))
	if err == nil || !strings.Contains(err.Error(), "passphrase") {
		t.Errorf("err = %v, want passphrase error", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"GOALPOST_ADDR":                  ":7070",
		"GOALPOST_DB_PATH":               "/var/lib/goalpost.db",
		"GOALPOST_BACKUP_BUCKET":         "snaps",
		"GOALPOST_BACKUP_PASSPHRASE":     "hunter2",
		"GOALPOST_BACKUP_RETENTION_DAYS": "7",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg, err := parse([]byte("addr: \":9000\"\nuser_id: bob\n"), lookup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("addr = %q, want env value %q", cfg.Addr, ":7070")
	}
	if cfg.UserID != "bob" {
		t.Errorf("user_id = %q, want file value %q", cfg.UserID, "bob")
	}
	if cfg.Storage.DBPath != "/var/lib/goalpost.db" {
		t.Errorf("db_path = %q", cfg.Storage.DBPath)
	}
	if !cfg.Backup.Enabled() || cfg.Backup.RetentionDays != 7 {
		t.Errorf("backup = %+v", cfg.Backup)
	}

	env["GOALPOST_BACKUP_RETENTION_DAYS"] = "a week"
	if _, err := parse(nil, lookup); err == nil {
		t.Error("expected error for non-numeric retention")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want default", cfg.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOALPOST_USER_ID", "carol")

	path := filepath.Join(t.TempDir(), "goalpost.yaml")
	if err := os.WriteFile(path, []byte("user_id: dave\nlog_level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserID != "carol" {
		t.Errorf("user_id = %q, want env override %q", cfg.UserID, "carol")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel, "warn")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GOALPOST_ADDR", "")
	os.Unsetenv("GOALPOST_ADDR")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GOALPOST_ADDR=:6060\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":6060" {
		t.Errorf("addr = %q, want .env value %q", cfg.Addr, ":6060")
	}
}
