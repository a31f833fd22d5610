// Package backup ships encrypted copies of the database to S3-compatible
// storage on a daily schedule and prunes old ones.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is the slice of the S3 API the manager uses, for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type Config struct {
	S3            S3Config
	DBPath        string
	Passphrase    string
	RetentionDays int
	// Hour of day (UTC) the daily backup runs.
	Hour int
}

// Manager runs the scheduled backup loop. It is disabled (a no-op) when the
// S3 credentials or passphrase are not configured.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger

	lastRun time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	now     func() time.Time
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	m := &Manager{
		cfg:    cfg,
		db:     db,
		logger: logger.With("component", "backup"),
		now:    time.Now,
	}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
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

// Enabled reports whether backups are configured.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Start begins the schedule loop. Does nothing when disabled.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		m.logger.Info("backups disabled, missing S3 config or passphrase")
		return
	}

	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for any in-flight backup.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// checkSchedule fires once per day at the configured hour.
func (m *Manager) checkSchedule(ctx context.Context) {
	now := m.now().UTC()
	if now.Hour() != m.cfg.Hour {
		return
	}
	m.mu.RLock()
	ranToday := m.lastRun.Year() == now.Year() && m.lastRun.YearDay() == now.YearDay()
	m.mu.RUnlock()
	if ranToday {
		return
	}

	if err := m.RunOnce(ctx); err != nil {
		m.logger.Error("scheduled backup", "error", err)
		return
	}
	m.mu.Lock()
	m.lastRun = now
	m.mu.Unlock()

	if err := m.cleanup(ctx); err != nil {
		m.logger.Error("backup cleanup", "error", err)
	}
}

// RunOnce checkpoints, encrypts, and uploads a backup immediately.
func (m *Manager) RunOnce(ctx context.Context) error {
	if !m.Enabled() {
		return fmt.Errorf("backups not configured")
	}

	timestamp := m.now().UTC().Format("2006-01-02T150405Z")
	key := fmt.Sprintf("backups/subsctl-%s.db.enc", timestamp)

	tmpDir := os.TempDir()
	dbCopy := filepath.Join(tmpDir, fmt.Sprintf("subsctl-backup-%s.db", timestamp))
	encFile := dbCopy + ".enc"
	defer os.Remove(dbCopy)
	defer os.Remove(encFile)

	// Flush the WAL so the file copy is a complete snapshot.
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	if err := copyFile(m.cfg.DBPath, dbCopy); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}
	if err := EncryptFile(dbCopy, encFile, m.cfg.Passphrase); err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	f, err := os.Open(encFile)
	if err != nil {
		return fmt.Errorf("open encrypted file: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat encrypted file: %w", err)
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
	})
	if err != nil {
		return fmt.Errorf("upload to s3: %w", err)
	}

	m.logger.Info("backup uploaded", "key", key, "size", stat.Size())
	return nil
}

// cleanup deletes objects older than the retention period. Backup keys
// embed their timestamp, so age comes from the key itself.
func (m *Manager) cleanup(ctx context.Context) error {
	before := m.now().UTC().AddDate(0, 0, -m.cfg.RetentionDays)

	out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Prefix: aws.String("backups/"),
	})
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}

	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		ts, ok := parseBackupKey(key)
		if !ok || !ts.Before(before) {
			continue
		}
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Error("delete old backup", "key", key, "error", err)
			continue
		}
		m.logger.Info("old backup deleted", "key", key)
	}
	return nil
}

func parseBackupKey(key string) (time.Time, bool) {
	name := strings.TrimPrefix(key, "backups/subsctl-")
	name = strings.TrimSuffix(name, ".db.enc")
	ts, err := time.Parse("2006-01-02T150405Z", name)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
