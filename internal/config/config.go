// Package config loads goalpost settings from an optional YAML file, .env
// files and GOALPOST_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EngineSQLite = "sqlite"
	EngineMySQL  = "mysql"
)

type Config struct {
	Addr     string        `yaml:"addr"`
	UserID   string        `yaml:"user_id"`
	LogLevel string        `yaml:"log_level"`
	Storage  StorageConfig `yaml:"storage"`
	Backup   BackupConfig  `yaml:"backup"`
}

// StorageConfig selects the repository engine. DBPath is used by the sqlite
// engine, MySQLDSN by the mysql engine.
type StorageConfig struct {
	Engine   string `yaml:"engine"`
	DBPath   string `yaml:"db_path"`
	MySQLDSN string `yaml:"mysql_dsn"`
}

// BackupConfig holds S3-compatible snapshot settings. Snapshots are disabled
// while Bucket is empty.
type BackupConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Passphrase    string `yaml:"passphrase"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
}

func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads .env files, then the YAML file at path (a missing file is not an
// error, and an empty path skips it), then applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return parse(data, os.LookupEnv)
}

// Parse unmarshals YAML bytes into a validated Config without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	return parse(data, func(string) (string, bool) { return "", false })
}

func parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"GOALPOST_ADDR":              &c.Addr,
		"GOALPOST_USER_ID":           &c.UserID,
		"GOALPOST_LOG_LEVEL":         &c.LogLevel,
		"GOALPOST_STORAGE_ENGINE":    &c.Storage.Engine,
		"GOALPOST_DB_PATH":           &c.Storage.DBPath,
		"GOALPOST_MYSQL_DSN":         &c.Storage.MySQLDSN,
		"GOALPOST_BACKUP_ENDPOINT":   &c.Backup.Endpoint,
		"GOALPOST_BACKUP_BUCKET":     &c.Backup.Bucket,
		"GOALPOST_BACKUP_REGION":     &c.Backup.Region,
		"GOALPOST_BACKUP_ACCESS_KEY": &c.Backup.AccessKey,
		"GOALPOST_BACKUP_SECRET_KEY": &c.Backup.SecretKey,
		"GOALPOST_BACKUP_PASSPHRASE": &c.Backup.Passphrase,
		"GOALPOST_BACKUP_SCHEDULE":   &c.Backup.Schedule,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("GOALPOST_BACKUP_RETENTION_DAYS"); ok {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: GOALPOST_BACKUP_RETENTION_DAYS: %q is not a number", v)
		}
		c.Backup.RetentionDays = days
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.UserID == "" {
		c.UserID = "local"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Storage.Engine == "" {
		c.Storage.Engine = EngineSQLite
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = "goalpost.db"
	}
	if c.Backup.Region == "" {
		c.Backup.Region = "us-east-1"
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 30
	}
}

func (c *Config) validate() error {
	var errs []string
	switch c.Storage.Engine {
	case EngineSQLite:
	case EngineMySQL:
		if c.Storage.MySQLDSN == "" {
			errs = append(errs, "storage.mysql_dsn is required for the mysql engine")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.engine %q must be %q or %q", c.Storage.Engine, EngineSQLite, EngineMySQL))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not a level", c.LogLevel))
	}
	if c.Backup.Enabled() {
		if c.Storage.Engine != EngineSQLite {
			errs = append(errs, "backup requires the sqlite engine")
		}
		if c.Backup.Passphrase == "" {
			errs = append(errs, "backup.passphrase is required when backup.bucket is set")
		}
	}
	if c.Backup.RetentionDays < 0 {
		errs = append(errs, "backup.retention_days must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
