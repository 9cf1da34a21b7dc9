package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/punchcard/internal/database"
	"github.com/dukerupert/punchcard/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func setupBackupTest(t *testing.T) (*Manager, *mockS3Client, *store.BackupStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	m := NewManager(Config{
		DBPath:     dbPath,
		Passphrase: "test-passphrase",
	}, db, bs, slog.Default())

	mock := newMockS3()
	m.client = mock
	m.cfg.S3.Bucket = "test-bucket"
	return m, mock, bs
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	m, mock, bs := setupBackupTest(t)

	record, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	if !strings.HasPrefix(record.ObjectKey, "punchcard/") || !strings.HasSuffix(record.ObjectKey, ".db.enc") {
		t.Errorf("object key = %q", record.ObjectKey)
	}
	if record.SizeBytes <= 0 {
		t.Errorf("size = %d, want > 0", record.SizeBytes)
	}

	mock.mu.Lock()
	data, ok := mock.objects[record.ObjectKey]
	mock.mu.Unlock()
	if !ok {
		t.Fatal("object not uploaded")
	}
	// SQLite files start with a fixed header; the upload must not.
	if strings.HasPrefix(string(data), "SQLite format 3") {
		t.Error("uploaded snapshot is not encrypted")
	}

	list, err := bs.List()
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(list) != 1 || list[0].ObjectKey != record.ObjectKey {
		t.Errorf("backup records = %+v", list)
	}
}

func TestRunNowUploadFailureLeavesNoRecord(t *testing.T) {
	m, mock, bs := setupBackupTest(t)
	mock.putErr = errors.New("s3 unavailable")

	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}
	list, err := bs.List()
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(list) != 0 {
		t.Error("failed backup must not be recorded")
	}
}

func TestRunNowUnconfigured(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{DBPath: dbPath}, db, store.NewBackupStore(db), slog.Default())
	if m.Enabled() {
		t.Error("manager without credentials should be disabled")
	}
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected error when not configured")
	}
}
