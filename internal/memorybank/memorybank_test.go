package memorybank_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/compliance-sentinel/sentinel/internal/memorybank"
	"github.com/compliance-sentinel/sentinel/pkg/lifecycle"
)

const testVersion = "test-v1"

var testConfig = memorybank.Config{
	EmbeddingDimension: 3,
	EmbeddingVersion:   testVersion,
}

type stubPolicies struct {
	snippet *memorybank.PolicySnippet
	err     error
}

func (s *stubPolicies) Snippet(_ context.Context, _, _ string) (*memorybank.PolicySnippet, error) {
	return s.snippet, s.err
}

func newBank(t *testing.T) memorybank.System {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return memorybank.New(
		memorybank.NewMemoryStore(),
		&stubPolicies{},
		testConfig,
		logger,
		nil, nil,
	)
}

func startBank(t *testing.T, bank memorybank.System) {
	t.Helper()

	lc := lifecycle.New()
	if err := bank.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()
	t.Cleanup(func() { lc.Shutdown(time.Second) })
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    memorybank.Vector
		b    memorybank.Vector
		want float64
	}{
		{"identical", memorybank.Vector{1, 0, 0}, memorybank.Vector{1, 0, 0}, 1},
		{"orthogonal", memorybank.Vector{1, 0, 0}, memorybank.Vector{0, 1, 0}, 0},
		{"opposite", memorybank.Vector{1, 0, 0}, memorybank.Vector{-1, 0, 0}, -1},
		{"scaled", memorybank.Vector{1, 2, 3}, memorybank.Vector{2, 4, 6}, 1},
		{"zero vector", memorybank.Vector{0, 0, 0}, memorybank.Vector{1, 2, 3}, 0},
		{"length mismatch", memorybank.Vector{1, 0}, memorybank.Vector{1, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := memorybank.Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRegisterAndSearchTemplates(t *testing.T) {
	bank := newBank(t)
	ctx := context.Background()

	registered, err := bank.RegisterTemplate(ctx, memorybank.RegisterTemplateCommand{
		SourceDocID:      "contract-001",
		DocumentType:     "contract",
		CanonicalText:    "This agreement is entered into...",
		Embedding:        memorybank.Vector{1, 0, 0},
		EmbeddingVersion: testVersion,
	})
	if err != nil {
		t.Fatalf("RegisterTemplate() error = %v", err)
	}

	if _, err = bank.RegisterTemplate(ctx, memorybank.RegisterTemplateCommand{
		SourceDocID:      "invoice-001",
		DocumentType:     "invoice",
		CanonicalText:    "Invoice for services rendered.",
		Embedding:        memorybank.Vector{0, 1, 0},
		EmbeddingVersion: testVersion,
	}); err != nil {
		t.Fatalf("RegisterTemplate() error = %v", err)
	}

	matches, err := bank.FindSimilarTemplates(ctx, memorybank.Vector{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("FindSimilarTemplates() error = %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Template.ID != registered.ID {
		t.Errorf("top match = %s, want %s", matches[0].Template.ID, registered.ID)
	}
	if math.Abs(matches[0].Score-1) > 1e-6 {
		t.Errorf("self similarity = %f, want 1", matches[0].Score)
	}
	if matches[0].Score < matches[1].Score {
		t.Error("matches not sorted descending by score")
	}
}

func TestSearchTieBreaksByRecency(t *testing.T) {
	bank := newBank(t)
	ctx := context.Background()

	older, err := bank.RegisterTemplate(ctx, memorybank.RegisterTemplateCommand{
		DocumentType:     "report",
		CanonicalText:    "older",
		Embedding:        memorybank.Vector{1, 0, 0},
		EmbeddingVersion: testVersion,
	})
	if err != nil {
		t.Fatalf("RegisterTemplate() error = %v", err)
	}

	newer, err := bank.RegisterTemplate(ctx, memorybank.RegisterTemplateCommand{
		DocumentType:     "report",
		CanonicalText:    "newer",
		Embedding:        memorybank.Vector{1, 0, 0},
		EmbeddingVersion: testVersion,
	})
	if err != nil {
		t.Fatalf("RegisterTemplate() error = %v", err)
	}

	matches, err := bank.FindSimilarTemplates(ctx, memorybank.Vector{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("FindSimilarTemplates() error = %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Template.ID != newer.ID || matches[1].Template.ID != older.ID {
		t.Error("equal scores must rank the most recent entry first")
	}
}

func TestSearchLimitsToK(t *testing.T) {
	bank := newBank(t)
	ctx := context.Background()

	vectors := []memorybank.Vector{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, vec := range vectors {
		if _, err := bank.RecordViolation(ctx, memorybank.RecordViolationCommand{
			Kind:             "policy_violation",
			Severity:         "low",
			Summary:          fmt.Sprintf("record %d", i),
			Embedding:        vec,
			EmbeddingVersion: testVersion,
		}); err != nil {
			t.Fatalf("RecordViolation() error = %v", err)
		}
	}

	matches, err := bank.FindSimilarViolations(ctx, memorybank.Vector{1, 1, 0}, 2)
	if err != nil {
		t.Fatalf("FindSimilarViolations() error = %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("len(matches) = %d, want 2", len(matches))
	}
}

func TestVectorValidation(t *testing.T) {
	bank := newBank(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		embedding memorybank.Vector
		version   string
		wantErr   error
	}{
		{"wrong dimension", memorybank.Vector{1, 0}, testVersion, memorybank.ErrDimensionMismatch},
		{"wrong version", memorybank.Vector{1, 0, 0}, "other-v2", memorybank.ErrEmbeddingVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bank.RegisterTemplate(ctx, memorybank.RegisterTemplateCommand{
				DocumentType:     "contract",
				CanonicalText:    "text",
				Embedding:        tt.embedding,
				EmbeddingVersion: tt.version,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RegisterTemplate() error = %v, want %v", err, tt.wantErr)
			}

			_, err = bank.RecordViolation(ctx, memorybank.RecordViolationCommand{
				Kind:             "pii",
				Severity:         "high",
				Summary:          "summary",
				Embedding:        tt.embedding,
				EmbeddingVersion: tt.version,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordViolation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	bank := newBank(t)

	_, err := bank.FindSimilarTemplates(context.Background(), memorybank.Vector{1, 0}, 3)
	if !errors.Is(err, memorybank.ErrDimensionMismatch) {
		t.Errorf("FindSimilarTemplates() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestLoadSkipsStaleVersions(t *testing.T) {
	store := memorybank.NewMemoryStore()
	ctx := context.Background()

	seed := memorybank.New(
		store,
		&stubPolicies{},
		testConfig,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		nil, nil,
	)

	current, err := seed.RegisterTemplate(ctx, memorybank.RegisterTemplateCommand{
		DocumentType:     "contract",
		CanonicalText:    "current",
		Embedding:        memorybank.Vector{1, 0, 0},
		EmbeddingVersion: testVersion,
	})
	if err != nil {
		t.Fatalf("RegisterTemplate() error = %v", err)
	}

	// A bank pinned to a newer version must drop the persisted entry on load.
	reopened := memorybank.New(
		store,
		&stubPolicies{},
		memorybank.Config{EmbeddingDimension: 3, EmbeddingVersion: "newer-v2"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		nil, nil,
	)

	startBank(t, reopened)

	matches, err := reopened.FindSimilarTemplates(ctx, memorybank.Vector{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("FindSimilarTemplates() error = %v", err)
	}
	for _, m := range matches {
		if m.Template.ID == current.ID {
			t.Error("stale-version template must not be searchable after reload")
		}
	}
}

func TestPolicySnippetDelegates(t *testing.T) {
	want := &memorybank.PolicySnippet{
		PolicyID: "CONTRACT_001",
		Text:     "All contracts must include a termination clause.",
	}

	bank := memorybank.New(
		memorybank.NewMemoryStore(),
		&stubPolicies{snippet: want},
		testConfig,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		nil, nil,
	)

	got, err := bank.PolicySnippet(context.Background(), "contract", "CONTRACT_001")
	if err != nil {
		t.Fatalf("PolicySnippet() error = %v", err)
	}
	if got.PolicyID != want.PolicyID {
		t.Errorf("PolicyID = %q, want %q", got.PolicyID, want.PolicyID)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", memorybank.ErrNotFound, http.StatusNotFound},
		{"duplicate", memorybank.ErrDuplicate, http.StatusConflict},
		{"embedding version", memorybank.ErrEmbeddingVersion, http.StatusBadRequest},
		{"dimension mismatch", memorybank.ErrDimensionMismatch, http.StatusBadRequest},
		{"empty query", memorybank.ErrEmptyQuery, http.StatusBadRequest},
		{
			"wrapped",
			fmt.Errorf("register failed: %w", memorybank.ErrDimensionMismatch),
			http.StatusBadRequest,
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := memorybank.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
