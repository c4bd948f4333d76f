package audits

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/pkg/lifecycle"
	"github.com/compliance-sentinel/sentinel/pkg/storage"
)

type blobEntry struct {
	data        []byte
	contentType string
}

// memoryBlobs is an in-memory storage.System for exercising bundle
// archival without a blob service.
type memoryBlobs struct {
	entries map[string]blobEntry
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{entries: map[string]blobEntry{}}
}

func (m *memoryBlobs) Start(*lifecycle.Coordinator) error { return nil }

func (m *memoryBlobs) Upload(_ context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.entries[key] = blobEntry{data: data, contentType: contentType}
	return nil
}

func (m *memoryBlobs) Download(_ context.Context, key string) (io.ReadCloser, error) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(entry.data)), nil
}

func (m *memoryBlobs) Delete(_ context.Context, key string) error {
	if _, ok := m.entries[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.entries, key)
	return nil
}

func (m *memoryBlobs) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.entries[key]
	return ok, nil
}

func (m *memoryBlobs) List(context.Context, string, string, int32) (*storage.ListResult, error) {
	return &storage.ListResult{}, nil
}

func (m *memoryBlobs) Find(_ context.Context, key string) (*storage.BlobMeta, error) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.BlobMeta{
		Key:         key,
		ContentType: entry.contentType,
		Size:        int64(len(entry.data)),
	}, nil
}

func bundleTestRepo(blobs storage.System) *repo {
	return &repo{
		blobs:  blobs,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestArchiveBundle(t *testing.T) {
	blobs := newMemoryBlobs()
	r := bundleTestRepo(blobs)

	id := uuid.New()
	snapshot := []byte(`{"status":"completed"}`)

	if err := r.archiveBundle(context.Background(), id, snapshot); err != nil {
		t.Fatalf("archiveBundle() error = %v", err)
	}

	entry, ok := blobs.entries[bundleKey(id)]
	if !ok {
		t.Fatalf("no blob stored at %s", bundleKey(id))
	}
	if entry.contentType != "application/json" {
		t.Errorf("content type = %q, want application/json", entry.contentType)
	}
	if !bytes.Equal(entry.data, snapshot) {
		t.Errorf("stored bundle = %s, want %s", entry.data, snapshot)
	}
}

func TestBundle(t *testing.T) {
	t.Run("round trips archived snapshot", func(t *testing.T) {
		blobs := newMemoryBlobs()
		r := bundleTestRepo(blobs)

		id := uuid.New()
		snapshot := []byte(`{"status":"completed","degraded":false}`)

		if err := r.archiveBundle(context.Background(), id, snapshot); err != nil {
			t.Fatalf("archiveBundle() error = %v", err)
		}

		rc, err := r.Bundle(context.Background(), id)
		if err != nil {
			t.Fatalf("Bundle() error = %v", err)
		}
		defer rc.Close()

		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read bundle: %v", err)
		}
		if !bytes.Equal(got, snapshot) {
			t.Errorf("bundle = %s, want %s", got, snapshot)
		}
	})

	t.Run("missing bundle maps to domain error", func(t *testing.T) {
		r := bundleTestRepo(newMemoryBlobs())

		if _, err := r.Bundle(context.Background(), uuid.New()); !errors.Is(err, ErrNoBundle) {
			t.Errorf("Bundle() error = %v, want ErrNoBundle", err)
		}
	})
}
