package backup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Reidond/subsctl/internal/database"
)

type fakeS3 struct {
	objects map[string][]byte
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(input.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(input.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(input.Key)
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func testManager(t *testing.T) (*Manager, *fakeS3) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "subsctl.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(Config{
		S3:            S3Config{Bucket: "test", AccessKey: "k", SecretKey: "s"},
		DBPath:        dbPath,
		Passphrase:    "test-passphrase",
		RetentionDays: 30,
		Hour:          3,
	}, db, logger)

	fake := newFakeS3()
	m.client = fake
	return m, fake
}

func TestRunOnceUploadsDecryptableBackup(t *testing.T) {
	m, fake := testManager(t)

	if err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(fake.objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(fake.objects))
	}

	for key, data := range fake.objects {
		if !strings.HasPrefix(key, "backups/subsctl-") || !strings.HasSuffix(key, ".db.enc") {
			t.Errorf("key = %q, want backups/subsctl-<ts>.db.enc", key)
		}

		dir := t.TempDir()
		enc := filepath.Join(dir, "got.enc")
		dec := filepath.Join(dir, "got.db")
		os.WriteFile(enc, data, 0600)
		if err := DecryptFile(enc, dec, "test-passphrase"); err != nil {
			t.Errorf("uploaded backup not decryptable: %v", err)
		}
	}
}

func TestRunOnceDisabledWithoutConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subsctl.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(Config{DBPath: dbPath}, db, logger)

	if m.Enabled() {
		t.Error("manager should be disabled without S3 config")
	}
	if err := m.RunOnce(context.Background()); err == nil {
		t.Error("expected error from unconfigured RunOnce")
	}
}

func TestCleanupDeletesOnlyExpiredBackups(t *testing.T) {
	m, fake := testManager(t)
	m.now = func() time.Time { return time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC) }

	oldKey := "backups/subsctl-2026-07-01T030000Z.db.enc"
	freshKey := "backups/subsctl-2026-08-20T030000Z.db.enc"
	strayKey := "backups/manual-export.bin"
	fake.objects[oldKey] = []byte("old")
	fake.objects[freshKey] = []byte("fresh")
	fake.objects[strayKey] = []byte("stray")

	if err := m.cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, ok := fake.objects[oldKey]; ok {
		t.Error("expired backup survived cleanup")
	}
	if _, ok := fake.objects[freshKey]; !ok {
		t.Error("fresh backup was deleted")
	}
	// Keys that do not parse as backups are left alone.
	if _, ok := fake.objects[strayKey]; !ok {
		t.Error("unrelated object was deleted")
	}
}

func TestParseBackupKey(t *testing.T) {
	ts, ok := parseBackupKey("backups/subsctl-2026-09-01T030000Z.db.enc")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	want := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("ts = %v, want %v", ts, want)
	}

	if _, ok := parseBackupKey("backups/other.txt"); ok {
		t.Error("expected parse failure for unrelated key")
	}
}

func TestCheckScheduleRunsOncePerDay(t *testing.T) {
	m, fake := testManager(t)
	at := time.Date(2026, 9, 1, 3, 5, 0, 0, time.UTC)
	m.now = func() time.Time { return at }

	m.checkSchedule(context.Background())
	if len(fake.objects) != 1 {
		t.Fatalf("objects = %d, want 1 after first check", len(fake.objects))
	}

	// Same hour again: no second backup.
	at = at.Add(10 * time.Minute)
	m.checkSchedule(context.Background())
	if len(fake.objects) != 1 {
		t.Errorf("objects = %d, want still 1", len(fake.objects))
	}

	// Wrong hour: nothing.
	at = at.Add(5 * time.Hour)
	m.checkSchedule(context.Background())
	if len(fake.objects) != 1 {
		t.Errorf("objects = %d, want still 1 at wrong hour", len(fake.objects))
	}

	// Next day at the scheduled hour: one more.
	at = time.Date(2026, 9, 2, 3, 1, 0, 0, time.UTC)
	m.checkSchedule(context.Background())
	if len(fake.objects) != 2 {
		t.Errorf("objects = %d, want 2 next day", len(fake.objects))
	}
}
