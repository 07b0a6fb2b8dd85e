package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filebin/internal/blob"
	"filebin/internal/registry"
)

func newTestService(t *testing.T) (*FileService, *blob.Store) {
	t.Helper()

	store, err := blob.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	return NewFileService(registry.New(), store, logger), store
}

func upload(t *testing.T, svc *FileService, name string, payload []byte) *registry.FileRecord {
	t.Helper()

	record, _, err := svc.Upload(context.Background(), UploadInput{
		Name:      name,
		MimeType:  "text/plain",
		Reader:    bytes.NewReader(payload),
		SizeLimit: 1 << 20,
	})
	if err != nil {
		t.Fatalf("Upload %s returned error: %v", name, err)
	}
	return record
}

func TestFileService_UploadThenList(t *testing.T) {
	svc, _ := newTestService(t)

	names := []string{"a.txt", "b.txt", "c.txt"}
	for i, name := range names {
		payload := bytes.Repeat([]byte("x"), i+1)
		record := upload(t, svc, name, payload)
		if record.Size != int64(i+1) {
			t.Fatalf("record size = %d, want %d", record.Size, i+1)
		}
		if record.ID == "" {
			t.Fatal("record id is empty")
		}
	}

	records, count := svc.ListFiles()
	if count != 3 || len(records) != 3 {
		t.Fatalf("expected 3 records, got count=%d len=%d", count, len(records))
	}
	for i, record := range records {
		if record.Name != names[i] {
			t.Fatalf("position %d: expected %s, got %s", i, names[i], record.Name)
		}
	}
}

func TestFileService_DownloadRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	payload := []byte("hello")
	record := upload(t, svc, "a.txt", payload)

	got, content, err := svc.OpenFile(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	defer content.Close()

	if got.Name != "a.txt" || got.Size != 5 {
		t.Fatalf("unexpected record: %+v", got)
	}

	data, err := io.ReadAll(content)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("round trip mismatch: got %q, want %q", data, payload)
	}
}

func TestFileService_OpenUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.OpenFile(context.Background(), "unknown-id")
	if !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected registry.ErrNotFound, got %v", err)
	}
}

func TestFileService_UploadTooLarge(t *testing.T) {
	svc, store := newTestService(t)

	_, _, err := svc.Upload(context.Background(), UploadInput{
		Name:      "big.bin",
		MimeType:  "application/octet-stream",
		Reader:    strings.NewReader(strings.Repeat("x", 100)),
		SizeLimit: 64,
	})
	if !errors.Is(err, blob.ErrSizeLimitExceeded) {
		t.Fatalf("expected ErrSizeLimitExceeded, got %v", err)
	}

	if _, count := svc.ListFiles(); count != 0 {
		t.Fatalf("rejected upload must not appear in list, count=%d", count)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected upload left %d files on disk", len(entries))
	}
}

func TestFileService_DeleteFile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	record := upload(t, svc, "a.txt", []byte("hello"))

	deleted, err := svc.DeleteFile(ctx, record.ID)
	if err != nil {
		t.Fatalf("DeleteFile returned error: %v", err)
	}
	if deleted.Name != "a.txt" {
		t.Fatalf("unexpected deleted record: %+v", deleted)
	}

	if _, count := svc.ListFiles(); count != 0 {
		t.Fatalf("expected empty list after delete, count=%d", count)
	}
	if _, _, err := svc.OpenFile(ctx, record.ID); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty storage dir after delete, found %d entries", len(entries))
	}
}

func TestFileService_DeleteUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.DeleteFile(context.Background(), "unknown-id")
	if !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected registry.ErrNotFound, got %v", err)
	}
}

func TestFileService_DeleteWithMissingBlob(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	record := upload(t, svc, "a.txt", []byte("hello"))

	// 模拟外部清掉了落盘文件：删除仍按幂等成功处理
	if err := os.Remove(filepath.Join(store.Dir(), record.StorageKey)); err != nil {
		t.Fatalf("remove blob: %v", err)
	}

	if _, err := svc.DeleteFile(ctx, record.ID); err != nil {
		t.Fatalf("DeleteFile with missing blob returned error: %v", err)
	}
	if _, count := svc.ListFiles(); count != 0 {
		t.Fatalf("expected empty list, count=%d", count)
	}
}

func TestFileService_BlobMissingOnDownload(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	record := upload(t, svc, "a.txt", []byte("hello"))

	if err := os.Remove(filepath.Join(store.Dir(), record.StorageKey)); err != nil {
		t.Fatalf("remove blob: %v", err)
	}

	_, _, err := svc.OpenFile(ctx, record.ID)
	if !errors.Is(err, ErrBlobMissing) {
		t.Fatalf("expected ErrBlobMissing, got %v", err)
	}
}

func TestFileService_DeleteAll(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		upload(t, svc, "f.txt", []byte("data"))
	}

	if count := svc.DeleteAll(ctx); count != 4 {
		t.Fatalf("expected DeleteAll to remove 4, got %d", count)
	}
	if count := svc.DeleteAll(ctx); count != 0 {
		t.Fatalf("expected second DeleteAll to remove 0, got %d", count)
	}
	if _, count := svc.ListFiles(); count != 0 {
		t.Fatalf("expected empty list after DeleteAll, count=%d", count)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty storage dir after DeleteAll, found %d entries", len(entries))
	}
}

func TestFileService_SanitizesUntrustedNames(t *testing.T) {
	svc, store := newTestService(t)

	record := upload(t, svc, "../../etc/passwd", []byte("nope"))

	// 原始文件名按原样保留在元数据里，存储键必须已净化
	if record.Name != "../../etc/passwd" {
		t.Fatalf("original name mutated: %q", record.Name)
	}
	if strings.ContainsAny(record.StorageKey, `/\`) || strings.Contains(record.StorageKey, "..") {
		t.Fatalf("storage key not sanitized: %q", record.StorageKey)
	}

	if _, err := os.Stat(filepath.Join(store.Dir(), record.StorageKey)); err != nil {
		t.Fatalf("blob not found under storage dir: %v", err)
	}
}
