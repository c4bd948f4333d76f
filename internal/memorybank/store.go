package memorybank

import (
	"context"
	"sync"
)

// Store is the durable persistence behind the Memory Bank. Implementations
// must commit writes before returning; the bank makes entities visible to
// readers only after the store write succeeds.
type Store interface {
	InsertTemplate(ctx context.Context, t Template) error
	ListTemplates(ctx context.Context) ([]Template, error)
	InsertViolation(ctx context.Context, r ViolationRecord) error
	ListViolations(ctx context.Context) ([]ViolationRecord, error)
}

// memoryStore keeps entities in process memory. Used in tests and for
// ephemeral dev runs without a database.
type memoryStore struct {
	mu        sync.Mutex
	templates []Template
	records   []ViolationRecord
}

// NewMemoryStore creates a non-durable in-process store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) InsertTemplate(_ context.Context, t Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, t)
	return nil
}

func (s *memoryStore) ListTemplates(_ context.Context) ([]Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Template, len(s.templates))
	copy(out, s.templates)
	return out, nil
}

func (s *memoryStore) InsertViolation(_ context.Context, r ViolationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *memoryStore) ListViolations(_ context.Context) ([]ViolationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ViolationRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}
