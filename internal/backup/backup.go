// Package backup takes encrypted snapshots of the SQLite database and keeps
// them in S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/robfig/cron/v3"
	_ "modernc.org/sqlite"
)

const (
	keyPrefix  = "snapshots/"
	keyStamp   = "20060102T150405Z"
	keySuffix  = ".db.enc"
	namePrefix = "goalpost-"
)

// ErrDisabled is returned by operations that need storage when no bucket is
// configured.
var ErrDisabled = errors.New("snapshots not configured")

// s3Client is the subset of the S3 API the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type Config struct {
	S3         S3Config
	Passphrase string
	// Schedule is a 5-field cron expression, evaluated in UTC. Empty disables
	// scheduled snapshots.
	Schedule      string
	RetentionDays int
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State        State      `json:"state"`
	LastSnapshot *time.Time `json:"last_snapshot,omitempty"`
	Error        string     `json:"error,omitempty"`
	InProgress   bool       `json:"in_progress"`
}

// StatusCallback is called whenever the manager state changes.
type StatusCallback func(Status)

type Snapshot struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	TakenAt time.Time `json:"taken_at"`
}

type Manager struct {
	mu       sync.Mutex
	running  sync.Mutex
	cfg      Config
	status   Status
	callback StatusCallback

	db     *sql.DB
	client s3Client
	logger *slog.Logger
	now    func() time.Time
	cron   *cron.Cron
}

// NewManager returns a manager over db. Without a bucket and credentials the
// manager stays disabled and Run, List, Restore and Prune return ErrDisabled.
func NewManager(cfg Config, db *sql.DB, callback StatusCallback, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfg:      cfg,
		db:       db,
		callback: callback,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		status:   Status{State: StateDisabled},
	}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) fail(err error) error {
	m.setStatus(Status{State: StateError, Error: err.Error()})
	return err
}

// snapshotKey names a snapshot taken at t. Keys sort by time.
func snapshotKey(t time.Time) string {
	return keyPrefix + namePrefix + t.UTC().Format(keyStamp) + keySuffix
}

func parseSnapshotKey(key string) (time.Time, bool) {
	name, ok := strings.CutPrefix(key, keyPrefix+namePrefix)
	if !ok {
		return time.Time{}, false
	}
	stamp, ok := strings.CutSuffix(name, keySuffix)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(keyStamp, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Run takes a consistent copy of the database with VACUUM INTO, encrypts it
// and uploads it. Concurrent calls are serialized.
func (m *Manager) Run(ctx context.Context) (Snapshot, error) {
	if m.client == nil {
		return Snapshot{}, ErrDisabled
	}
	m.running.Lock()
	defer m.running.Unlock()

	m.setStatus(Status{State: StateRunning, InProgress: true})

	tmpDir, err := os.MkdirTemp("", "goalpost-snapshot-")
	if err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("create temp dir: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	dbCopy := filepath.Join(tmpDir, "goalpost.db")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", dbCopy); err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("copy database: %w", err))
	}

	encrypted := dbCopy + ".enc"
	if err := EncryptFile(dbCopy, encrypted, m.cfg.Passphrase); err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("encrypt: %w", err))
	}
	sealed, err := os.ReadFile(encrypted)
	if err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("read snapshot: %w", err))
	}

	takenAt := m.now().UTC().Truncate(time.Second)
	snap := Snapshot{Key: snapshotKey(takenAt), Size: int64(len(sealed)), TakenAt: takenAt}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(snap.Key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(snap.Size),
	})
	if err != nil {
		return Snapshot{}, m.fail(fmt.Errorf("upload snapshot: %w", err))
	}

	m.logger.Info("snapshot uploaded", "key", snap.Key, "bytes", snap.Size)
	m.setStatus(Status{State: StateIdle, LastSnapshot: &takenAt})
	return snap, nil
}

// List returns stored snapshots, newest first. Objects under the prefix that
// do not follow the naming scheme are skipped.
func (m *Manager) List(ctx context.Context) ([]Snapshot, error) {
	if m.client == nil {
		return nil, ErrDisabled
	}

	var snaps []Snapshot
	p := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Prefix: aws.String(keyPrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			takenAt, ok := parseSnapshotKey(key)
			if !ok {
				continue
			}
			snaps = append(snaps, Snapshot{Key: key, Size: aws.ToInt64(obj.Size), TakenAt: takenAt})
		}
	}

	slices.SortFunc(snaps, func(a, b Snapshot) int {
		return b.TakenAt.Compare(a.TakenAt)
	})
	return snaps, nil
}

// Restore downloads the snapshot at key, decrypts and checks it, and writes
// it to targetPath. The target must not be open by a running server.
func (m *Manager) Restore(ctx context.Context, key, targetPath string) error {
	if m.client == nil {
		return ErrDisabled
	}

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download snapshot: %w", err)
	}
	sealed, err := io.ReadAll(result.Body)
	result.Body.Close()
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	plaintext, err := Open(sealed, m.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("decrypt snapshot: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "goalpost-restore-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	candidate := filepath.Join(tmpDir, "goalpost.db")
	if err := os.WriteFile(candidate, plaintext, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := checkIntegrity(ctx, candidate); err != nil {
		return err
	}

	if err := os.WriteFile(targetPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(targetPath + "-wal")
	os.Remove(targetPath + "-shm")

	m.logger.Info("snapshot restored", "key", key, "path", targetPath)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Prune deletes snapshots taken more than retentionDays ago and returns how
// many were removed. Individual delete failures are logged and skipped.
func (m *Manager) Prune(ctx context.Context, retentionDays int) (int, error) {
	if m.client == nil {
		return 0, ErrDisabled
	}
	if retentionDays <= 0 {
		return 0, nil
	}

	snaps, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := m.now().UTC().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, snap := range snaps {
		if !snap.TakenAt.Before(cutoff) {
			continue
		}
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(snap.Key),
		}); err != nil {
			m.logger.Warn("delete snapshot", "key", snap.Key, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
