package audits_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/audits"
	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", audits.ErrNotFound, http.StatusNotFound},
		{"duplicate", audits.ErrDuplicate, http.StatusConflict},
		{"empty text", audits.ErrEmptyText, http.StatusBadRequest},
		{"no bundle", audits.ErrNoBundle, http.StatusNotFound},
		{
			"wrapped empty text",
			fmt.Errorf("submit: %w", audits.ErrEmptyText),
			http.StatusBadRequest,
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := audits.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	documentID := uuid.New()

	tests := []struct {
		name   string
		values url.Values
		check  func(t *testing.T, f audits.Filters)
	}{
		{
			"empty",
			url.Values{},
			func(t *testing.T, f audits.Filters) {
				if f.DocumentID != nil || f.Status != nil || f.Outcome != nil || f.Degraded != nil {
					t.Errorf("Filters = %+v, want all nil", f)
				}
			},
		},
		{
			"document id",
			url.Values{"document_id": {documentID.String()}},
			func(t *testing.T, f audits.Filters) {
				if f.DocumentID == nil || *f.DocumentID != documentID {
					t.Errorf("DocumentID = %v, want %s", f.DocumentID, documentID)
				}
			},
		},
		{
			"malformed document id ignored",
			url.Values{"document_id": {"not-a-uuid"}},
			func(t *testing.T, f audits.Filters) {
				if f.DocumentID != nil {
					t.Errorf("DocumentID = %v, want nil", f.DocumentID)
				}
			},
		},
		{
			"status and outcome",
			url.Values{"status": {"completed"}, "outcome": {"auto_approve"}},
			func(t *testing.T, f audits.Filters) {
				if f.Status == nil || *f.Status != jobs.StatusCompleted {
					t.Errorf("Status = %v", f.Status)
				}
				if f.Outcome == nil || *f.Outcome != "auto_approve" {
					t.Errorf("Outcome = %v", f.Outcome)
				}
			},
		},
		{
			"degraded",
			url.Values{"degraded": {"true"}},
			func(t *testing.T, f audits.Filters) {
				if f.Degraded == nil || !*f.Degraded {
					t.Errorf("Degraded = %v, want true", f.Degraded)
				}
			},
		},
		{
			"degraded false",
			url.Values{"degraded": {"false"}},
			func(t *testing.T, f audits.Filters) {
				if f.Degraded == nil || *f.Degraded {
					t.Errorf("Degraded = %v, want false", f.Degraded)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, audits.FiltersFromQuery(tt.values))
		})
	}
}

func TestAuditJob(t *testing.T) {
	job := jobs.New(uuid.New(), jobs.ChunkText("Clause one.\n\nClause two."))
	job.DocumentType = "contract"

	snapshot, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}

	audit := audits.Audit{
		ID:         job.ID,
		DocumentID: job.DocumentID,
		Status:     job.Status,
		Snapshot:   snapshot,
	}

	restored, err := audit.Job()
	if err != nil {
		t.Fatalf("Job() error = %v", err)
	}

	if restored.ID != job.ID {
		t.Errorf("ID = %s, want %s", restored.ID, job.ID)
	}
	if restored.DocumentType != "contract" {
		t.Errorf("DocumentType = %q, want contract", restored.DocumentType)
	}
	if len(restored.Chunks) != 2 {
		t.Errorf("len(Chunks) = %d, want 2", len(restored.Chunks))
	}
}

func TestAuditJobMalformedSnapshot(t *testing.T) {
	audit := audits.Audit{Snapshot: []byte("{not json")}

	if _, err := audit.Job(); err == nil {
		t.Error("Job() error = nil, want unmarshal error")
	}
}
