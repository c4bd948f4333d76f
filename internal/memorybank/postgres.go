package memorybank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/compliance-sentinel/sentinel/pkg/repository"
)

// pgStore persists bank entities in PostgreSQL. Embeddings are stored as
// JSON arrays; per-row inserts give the bank its atomic-per-entity write
// guarantee.
type pgStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) InsertTemplate(ctx context.Context, t Template) error {
	embedding, err := json.Marshal(t.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	q := `
		INSERT INTO templates(id, source_doc_id, document_type, canonical_text, embedding, embedding_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(
			ctx, q,
			t.ID, t.SourceDocID, t.DocumentType, t.CanonicalText,
			embedding, t.EmbeddingVersion, t.CreatedAt,
		)
		return struct{}{}, err
	})

	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (s *pgStore) ListTemplates(ctx context.Context) ([]Template, error) {
	q := `
		SELECT id, source_doc_id, document_type, canonical_text, embedding, embedding_version, created_at
		FROM templates
		ORDER BY created_at`

	return repository.QueryMany(ctx, s.db, q, nil, scanTemplate)
}

func (s *pgStore) InsertViolation(ctx context.Context, r ViolationRecord) error {
	embedding, err := json.Marshal(r.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	q := `
		INSERT INTO violation_records(id, kind, rule_id, severity, summary, resolution, embedding, embedding_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(
			ctx, q,
			r.ID, r.Kind, r.RuleID, r.Severity, r.Summary, r.Resolution,
			embedding, r.EmbeddingVersion, r.CreatedAt,
		)
		return struct{}{}, err
	})

	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (s *pgStore) ListViolations(ctx context.Context) ([]ViolationRecord, error) {
	q := `
		SELECT id, kind, rule_id, severity, summary, resolution, embedding, embedding_version, created_at
		FROM violation_records
		ORDER BY created_at`

	return repository.QueryMany(ctx, s.db, q, nil, scanViolationRecord)
}

func scanTemplate(s repository.Scanner) (Template, error) {
	var t Template
	var embedding []byte

	err := s.Scan(
		&t.ID,
		&t.SourceDocID,
		&t.DocumentType,
		&t.CanonicalText,
		&embedding,
		&t.EmbeddingVersion,
		&t.CreatedAt,
	)
	if err != nil {
		return t, err
	}

	if err := json.Unmarshal(embedding, &t.Embedding); err != nil {
		return t, fmt.Errorf("unmarshal embedding: %w", err)
	}

	return t, nil
}

func scanViolationRecord(s repository.Scanner) (ViolationRecord, error) {
	var r ViolationRecord
	var embedding []byte

	err := s.Scan(
		&r.ID,
		&r.Kind,
		&r.RuleID,
		&r.Severity,
		&r.Summary,
		&r.Resolution,
		&embedding,
		&r.EmbeddingVersion,
		&r.CreatedAt,
	)
	if err != nil {
		return r, err
	}

	if err := json.Unmarshal(embedding, &r.Embedding); err != nil {
		return r, fmt.Errorf("unmarshal embedding: %w", err)
	}

	return r, nil
}
