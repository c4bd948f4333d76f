package audits

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/pkg/query"
	"github.com/compliance-sentinel/sentinel/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "audits", "a").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("status", "Status").
	Project("document_type", "DocumentType").
	Project("outcome", "Outcome").
	Project("score", "Score").
	Project("degraded", "Degraded").
	Project("failure_stage", "FailureStage").
	Project("failure_cause", "FailureCause").
	Project("snapshot", "Snapshot").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for audit queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	DocumentID   *uuid.UUID   `json:"document_id,omitempty"`
	Status       *jobs.Status `json:"status,omitempty"`
	DocumentType *string      `json:"document_type,omitempty"`
	Outcome      *string      `json:"outcome,omitempty"`
	Degraded     *bool        `json:"degraded,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("Status", f.Status).
		WhereEquals("DocumentType", f.DocumentType).
		WhereEquals("Outcome", f.Outcome).
		WhereEquals("Degraded", f.Degraded)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if d := values.Get("document_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DocumentID = &id
		}
	}

	if s := values.Get("status"); s != "" {
		status := jobs.Status(s)
		f.Status = &status
	}

	if dt := values.Get("document_type"); dt != "" {
		f.DocumentType = &dt
	}

	if o := values.Get("outcome"); o != "" {
		f.Outcome = &o
	}

	if d := values.Get("degraded"); d != "" {
		degraded := d == "true"
		f.Degraded = &degraded
	}

	return f
}

func scanAudit(s repository.Scanner) (Audit, error) {
	var a Audit
	var snapshot []byte

	err := s.Scan(
		&a.ID,
		&a.DocumentID,
		&a.Status,
		&a.DocumentType,
		&a.Outcome,
		&a.Score,
		&a.Degraded,
		&a.FailureStage,
		&a.FailureCause,
		&snapshot,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}

	a.Snapshot = snapshot
	return a, nil
}
