// Package memorybank implements the shared context store for document audits:
// canonical templates, historical violation records, and policy snippets,
// with similarity search fast enough to gate a synchronous pipeline stage.
// The bank is read-mostly; writes are durable before they return and atomic
// per entity.
package memorybank

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/pkg/lifecycle"
)

// Template is a canonical document fragment used for drift detection.
type Template struct {
	ID               uuid.UUID `json:"id"`
	SourceDocID      string    `json:"source_doc_id"`
	DocumentType     string    `json:"document_type"`
	CanonicalText    string    `json:"canonical_text"`
	Embedding        Vector    `json:"-"`
	EmbeddingVersion string    `json:"embedding_version"`
	CreatedAt        time.Time `json:"created_at"`
}

// ViolationRecord is a historical violation kept for precedent lookup.
type ViolationRecord struct {
	ID               uuid.UUID `json:"id"`
	Kind             string    `json:"kind"`
	RuleID           string    `json:"rule_id,omitempty"`
	Severity         string    `json:"severity"`
	Summary          string    `json:"summary"`
	Resolution       string    `json:"resolution,omitempty"`
	Embedding        Vector    `json:"-"`
	EmbeddingVersion string    `json:"embedding_version"`
	CreatedAt        time.Time `json:"created_at"`
}

// PolicySnippet is the policy text attached to violations during enrichment.
// An empty DocumentTypes list means the policy applies to every type.
type PolicySnippet struct {
	PolicyID      string   `json:"policy_id"`
	Text          string   `json:"text"`
	DocumentTypes []string `json:"document_types"`
}

// TemplateMatch pairs a template with its similarity score.
type TemplateMatch struct {
	Template Template `json:"template"`
	Score    float64  `json:"score"`
}

// ViolationMatch pairs a historical violation with its similarity score.
type ViolationMatch struct {
	Record ViolationRecord `json:"record"`
	Score  float64         `json:"score"`
}

// RegisterTemplateCommand carries the data needed to register a template.
type RegisterTemplateCommand struct {
	SourceDocID      string
	DocumentType     string
	CanonicalText    string
	Embedding        Vector
	EmbeddingVersion string
}

// RecordViolationCommand carries the data needed to record a historical
// violation.
type RecordViolationCommand struct {
	Kind             string
	RuleID           string
	Severity         string
	Summary          string
	Resolution       string
	Embedding        Vector
	EmbeddingVersion string
}

// PolicyProvider resolves policy snippets by document type and rule id. The
// policies domain implements it against PostgreSQL.
type PolicyProvider interface {
	Snippet(ctx context.Context, documentType, ruleID string) (*PolicySnippet, error)
}

// System defines the public contract of the Memory Bank.
type System interface {
	// Start registers a startup hook that loads persisted vectors into the
	// similarity indexes.
	Start(lc *lifecycle.Coordinator) error

	RegisterTemplate(ctx context.Context, cmd RegisterTemplateCommand) (*Template, error)
	FindSimilarTemplates(ctx context.Context, embedding Vector, k int) ([]TemplateMatch, error)
	RecordViolation(ctx context.Context, cmd RecordViolationCommand) (*ViolationRecord, error)
	FindSimilarViolations(ctx context.Context, embedding Vector, k int) ([]ViolationMatch, error)
	PolicySnippet(ctx context.Context, documentType, ruleID string) (*PolicySnippet, error)
}

// Config pins the bank's vector space.
type Config struct {
	EmbeddingDimension int
	EmbeddingVersion   string
}

type bank struct {
	store    Store
	policies PolicyProvider
	cfg      Config
	logger   *slog.Logger

	mu        sync.RWMutex
	templates map[uuid.UUID]Template
	records   map[uuid.UUID]ViolationRecord

	templateIndex  Index
	violationIndex Index
}

// New creates a Memory Bank over the given durable store and policy provider.
// Indexes default to exact scan when nil.
func New(
	store Store,
	policies PolicyProvider,
	cfg Config,
	logger *slog.Logger,
	templateIndex, violationIndex Index,
) System {
	if templateIndex == nil {
		templateIndex = NewExactIndex()
	}
	if violationIndex == nil {
		violationIndex = NewExactIndex()
	}

	return &bank{
		store:          store,
		policies:       policies,
		cfg:            cfg,
		logger:         logger.With("system", "memorybank"),
		templates:      make(map[uuid.UUID]Template),
		records:        make(map[uuid.UUID]ViolationRecord),
		templateIndex:  templateIndex,
		violationIndex: violationIndex,
	}
}

func (b *bank) Start(lc *lifecycle.Coordinator) error {
	b.logger.Info("starting memory bank")

	lc.OnStartup(func() {
		if err := b.load(lc.Context()); err != nil {
			b.logger.Error("memory bank load failed", "error", err)
			return
		}
		b.logger.Info(
			"memory bank loaded",
			"templates", b.templateIndex.Len(),
			"violations", b.violationIndex.Len(),
		)
	})

	return nil
}

func (b *bank) load(ctx context.Context) error {
	templates, err := b.store.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}

	records, err := b.store.ListViolations(ctx)
	if err != nil {
		return fmt.Errorf("list violations: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range templates {
		if t.EmbeddingVersion != b.cfg.EmbeddingVersion {
			b.logger.Warn(
				"skipping template with stale embedding version",
				"id", t.ID, "version", t.EmbeddingVersion,
			)
			continue
		}
		b.templates[t.ID] = t
		b.templateIndex.Add(t.ID, t.Embedding)
	}

	for _, r := range records {
		if r.EmbeddingVersion != b.cfg.EmbeddingVersion {
			continue
		}
		b.records[r.ID] = r
		b.violationIndex.Add(r.ID, r.Embedding)
	}

	return nil
}

func (b *bank) RegisterTemplate(ctx context.Context, cmd RegisterTemplateCommand) (*Template, error) {
	if err := b.checkVector(cmd.Embedding, cmd.EmbeddingVersion); err != nil {
		return nil, err
	}

	t := Template{
		ID:               uuid.New(),
		SourceDocID:      cmd.SourceDocID,
		DocumentType:     cmd.DocumentType,
		CanonicalText:    cmd.CanonicalText,
		Embedding:        cmd.Embedding,
		EmbeddingVersion: cmd.EmbeddingVersion,
		CreatedAt:        time.Now().UTC(),
	}

	// Durable before visible: the store write commits, then the entity
	// appears in cache and index atomically.
	if err := b.store.InsertTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}

	b.mu.Lock()
	b.templates[t.ID] = t
	b.templateIndex.Add(t.ID, t.Embedding)
	b.mu.Unlock()

	b.logger.Info("template registered", "id", t.ID, "document_type", t.DocumentType)
	return &t, nil
}

func (b *bank) FindSimilarTemplates(ctx context.Context, embedding Vector, k int) ([]TemplateMatch, error) {
	if err := b.checkVector(embedding, b.cfg.EmbeddingVersion); err != nil {
		return nil, err
	}

	matches := b.templateIndex.Search(embedding, k)

	b.mu.RLock()
	defer b.mu.RUnlock()

	results := make([]TemplateMatch, 0, len(matches))
	for _, m := range matches {
		if t, ok := b.templates[m.ID]; ok {
			results = append(results, TemplateMatch{Template: t, Score: m.Score})
		}
	}

	return results, nil
}

func (b *bank) RecordViolation(ctx context.Context, cmd RecordViolationCommand) (*ViolationRecord, error) {
	if err := b.checkVector(cmd.Embedding, cmd.EmbeddingVersion); err != nil {
		return nil, err
	}

	r := ViolationRecord{
		ID:               uuid.New(),
		Kind:             cmd.Kind,
		RuleID:           cmd.RuleID,
		Severity:         cmd.Severity,
		Summary:          cmd.Summary,
		Resolution:       cmd.Resolution,
		Embedding:        cmd.Embedding,
		EmbeddingVersion: cmd.EmbeddingVersion,
		CreatedAt:        time.Now().UTC(),
	}

	if err := b.store.InsertViolation(ctx, r); err != nil {
		return nil, fmt.Errorf("insert violation record: %w", err)
	}

	b.mu.Lock()
	b.records[r.ID] = r
	b.violationIndex.Add(r.ID, r.Embedding)
	b.mu.Unlock()

	return &r, nil
}

func (b *bank) FindSimilarViolations(ctx context.Context, embedding Vector, k int) ([]ViolationMatch, error) {
	if err := b.checkVector(embedding, b.cfg.EmbeddingVersion); err != nil {
		return nil, err
	}

	matches := b.violationIndex.Search(embedding, k)

	b.mu.RLock()
	defer b.mu.RUnlock()

	results := make([]ViolationMatch, 0, len(matches))
	for _, m := range matches {
		if r, ok := b.records[m.ID]; ok {
			results = append(results, ViolationMatch{Record: r, Score: m.Score})
		}
	}

	return results, nil
}

func (b *bank) PolicySnippet(ctx context.Context, documentType, ruleID string) (*PolicySnippet, error) {
	return b.policies.Snippet(ctx, documentType, ruleID)
}

func (b *bank) checkVector(v Vector, version string) error {
	if len(v) != b.cfg.EmbeddingDimension {
		return fmt.Errorf(
			"%w: got dimension %d, want %d",
			ErrDimensionMismatch, len(v), b.cfg.EmbeddingDimension,
		)
	}
	if version != b.cfg.EmbeddingVersion {
		return fmt.Errorf(
			"%w: got %q, want %q",
			ErrEmbeddingVersion, version, b.cfg.EmbeddingVersion,
		)
	}
	return nil
}
