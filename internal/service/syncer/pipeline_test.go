package syncer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/tmstorey/libmirror/internal/domain"
	"github.com/tmstorey/libmirror/internal/pathnorm"
)

func md5hex(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

func TestProcessSuccess(t *testing.T) {
	resolver := &pathnorm.Resolver{Root: t.TempDir()}
	files := newMockFileRepo()
	content := []byte("the file body")

	product, item := testProduct(), testItem()
	item.Checksums = []domain.ChecksumEntry{{Checksum: md5hex(content), Date: "2026-01-01"}}

	pipeline := NewPipeline(
		&mockCatalog{},
		&mockFetcher{fetchFn: func(string) ([]byte, error) { return content, nil }},
		files, resolver, true, false, zap.NewNop())

	result := pipeline.Process(context.Background(), product, item)
	if result.Status != domain.ItemUpdated {
		t.Fatalf("status = %v, err = %v", result.Status, result.Err)
	}

	record, ok := files.get(result.Key)
	if !ok {
		t.Fatal("no cache row after successful download")
	}
	if record.APILastModified != item.LastModified {
		t.Errorf("api_last_modified = %q", record.APILastModified)
	}
	if record.APIChecksum != md5hex(content) {
		t.Errorf("api_checksum = %q", record.APIChecksum)
	}
	if record.LocalChecksum != md5hex(content) {
		t.Errorf("local_checksum = %q", record.LocalChecksum)
	}

	written, err := os.ReadFile(record.LocalPath)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(written) != string(content) {
		t.Errorf("written bytes differ from fetched bytes")
	}
}

func TestProcessValidationDisabledSkipsHash(t *testing.T) {
	resolver := &pathnorm.Resolver{Root: t.TempDir()}
	files := newMockFileRepo()

	product, item := testProduct(), testItem()
	item.Checksums = []domain.ChecksumEntry{{Checksum: "does-not-match", Date: "2026-01-01"}}

	pipeline := NewPipeline(&mockCatalog{}, &mockFetcher{}, files, resolver, false, false, zap.NewNop())

	result := pipeline.Process(context.Background(), product, item)
	if result.Status != domain.ItemUpdated {
		t.Fatalf("status = %v, err = %v", result.Status, result.Err)
	}

	record, _ := files.get(result.Key)
	if record.LocalChecksum != "" {
		t.Errorf("local_checksum should be empty when validation is off, got %q", record.LocalChecksum)
	}
	// The remote's newest checksum is still recorded for change detection.
	if record.APIChecksum != "does-not-match" {
		t.Errorf("api_checksum = %q", record.APIChecksum)
	}
}

func TestProcessDryRun(t *testing.T) {
	resolver := &pathnorm.Resolver{Root: t.TempDir()}
	files := newMockFileRepo()

	fetched := false
	pipeline := NewPipeline(
		&mockCatalog{},
		&mockFetcher{fetchFn: func(string) ([]byte, error) {
			fetched = true
			return []byte("x"), nil
		}},
		files, resolver, false, true, zap.NewNop())

	result := pipeline.Process(context.Background(), testProduct(), testItem())
	if result.Status != domain.ItemDryRun {
		t.Fatalf("status = %v", result.Status)
	}
	if fetched {
		t.Error("dry run must not fetch")
	}
	if files.count() != 0 {
		t.Error("dry run must not touch the cache")
	}
}

func TestProcessURLIssuanceFailure(t *testing.T) {
	resolver := &pathnorm.Resolver{Root: t.TempDir()}
	files := newMockFileRepo()

	pipeline := NewPipeline(
		&mockCatalog{prepareFn: func(int64, int64) (string, error) {
			return "", domain.ErrPrepareDownload
		}},
		&mockFetcher{}, files, resolver, false, false, zap.NewNop())

	result := pipeline.Process(context.Background(), testProduct(), testItem())
	if result.Status != domain.ItemFailed {
		t.Fatalf("status = %v", result.Status)
	}
	if kind := result.FailureKind(); kind != domain.FailureURLIssuance {
		t.Errorf("failure kind = %v", kind)
	}
	if files.count() != 0 {
		t.Error("url failure must not touch the cache")
	}
}

func TestProcessTransportFailure(t *testing.T) {
	resolver := &pathnorm.Resolver{Root: t.TempDir()}
	files := newMockFileRepo()

	pipeline := NewPipeline(
		&mockCatalog{},
		&mockFetcher{fetchFn: func(string) ([]byte, error) {
			return nil, errors.New("connection reset")
		}},
		files, resolver, false, false, zap.NewNop())

	result := pipeline.Process(context.Background(), testProduct(), testItem())
	if result.Status != domain.ItemFailed {
		t.Fatalf("status = %v", result.Status)
	}
	if kind := result.FailureKind(); kind != domain.FailureTransport {
		t.Errorf("failure kind = %v", kind)
	}
	if files.count() != 0 {
		t.Error("transport failure must not touch the cache")
	}
}

func TestProcessIntegrityFailure(t *testing.T) {
	resolver := &pathnorm.Resolver{Root: t.TempDir()}
	files := newMockFileRepo()

	product, item := testProduct(), testItem()
	item.Checksums = []domain.ChecksumEntry{{Checksum: "expected-sum", Date: "2026-01-01"}}

	pipeline := NewPipeline(
		&mockCatalog{},
		&mockFetcher{fetchFn: func(string) ([]byte, error) { return []byte("corrupted"), nil }},
		files, resolver, true, false, zap.NewNop())

	result := pipeline.Process(context.Background(), product, item)
	if result.Status != domain.ItemFailed {
		t.Fatalf("status = %v", result.Status)
	}
	if kind := result.FailureKind(); kind != domain.FailureIntegrity {
		t.Errorf("failure kind = %v", kind)
	}
	if !errors.Is(result.Err, domain.ErrChecksumMismatch) {
		t.Errorf("err = %v, want ErrChecksumMismatch", result.Err)
	}

	// No cache row, no file on disk.
	if files.count() != 0 {
		t.Error("integrity failure must not create a cache row")
	}
	path := resolver.FilePath(product.Name, product.Publisher, item.Filename)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("integrity failure must not write the file")
	}
}

func TestProcessCacheStoreFailure(t *testing.T) {
	resolver := &pathnorm.Resolver{Root: t.TempDir()}
	files := newMockFileRepo()
	files.upsertErr = errors.New("disk i/o error")

	pipeline := NewPipeline(&mockCatalog{}, &mockFetcher{}, files, resolver, false, false, zap.NewNop())

	result := pipeline.Process(context.Background(), testProduct(), testItem())
	if result.Status != domain.ItemFailed {
		t.Fatalf("status = %v", result.Status)
	}
	if kind := result.FailureKind(); kind != domain.FailureCacheStore {
		t.Errorf("failure kind = %v", kind)
	}
}

func TestProcessFilesystemFailure(t *testing.T) {
	root := t.TempDir()
	resolver := &pathnorm.Resolver{Root: root}
	files := newMockFileRepo()

	product, item := testProduct(), testItem()

	// Occupy the publisher directory path with a plain file so MkdirAll fails.
	if err := os.WriteFile(resolver.FilePath(product.Name, product.Publisher, item.Filename), nil, 0644); err == nil {
		t.Fatal("expected write into missing directory to fail")
	}
	blocker := filepath.Join(root, "Acme Games")
	if err := os.WriteFile(blocker, []byte("in the way"), 0644); err != nil {
		t.Fatalf("failed to create blocking file: %v", err)
	}

	pipeline := NewPipeline(&mockCatalog{}, &mockFetcher{}, files, resolver, false, false, zap.NewNop())

	result := pipeline.Process(context.Background(), product, item)
	if result.Status != domain.ItemFailed {
		t.Fatalf("status = %v", result.Status)
	}
	if kind := result.FailureKind(); kind != domain.FailureFilesystem {
		t.Errorf("failure kind = %v", kind)
	}
	if files.count() != 0 {
		t.Error("filesystem failure must not touch the cache")
	}
}
