// Package audits implements the audit domain: submission of documents into
// the compliance pipeline, durable job checkpoints, and query access to
// finished and in-flight audit records.
package audits

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

// Audit is the durable record of one compliance job. ID is the job id.
// Snapshot holds the full Job serialized at the most recent checkpoint;
// the remaining columns are flattened from it for querying.
type Audit struct {
	ID           uuid.UUID       `json:"id"`
	DocumentID   uuid.UUID       `json:"document_id"`
	Status       jobs.Status     `json:"status"`
	DocumentType string          `json:"document_type"`
	Outcome      *string         `json:"outcome"`
	Score        *int            `json:"score"`
	Degraded     bool            `json:"degraded"`
	FailureStage *string         `json:"failure_stage"`
	FailureCause *string         `json:"failure_cause"`
	Snapshot     json.RawMessage `json:"snapshot"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Job deserializes the checkpointed Job from the audit snapshot.
func (a *Audit) Job() (*jobs.Job, error) {
	var j jobs.Job
	if err := json.Unmarshal(a.Snapshot, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// SubmitCommand carries the data needed to start an audit. Text is optional;
// when empty the document's stored content is fetched and audited.
type SubmitCommand struct {
	DocumentID uuid.UUID `json:"document_id"`
	Text       string    `json:"text,omitempty"`
}

// Receipt acknowledges an accepted audit submission. The job runs in the
// background; its progress is visible through the audit record.
type Receipt struct {
	JobID      uuid.UUID   `json:"job_id"`
	DocumentID uuid.UUID   `json:"document_id"`
	Status     jobs.Status `json:"status"`
}
