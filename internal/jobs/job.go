// Package jobs defines the processing lifecycle model for a single document
// audit: the Job state machine, detected violations, rewrite suggestions,
// and the final disposition.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Status identifies a Job's position in the audit pipeline.
type Status string

// Pipeline statuses in transition order. Failed is reachable from any
// non-terminal status; Completed and Failed are terminal.
const (
	StatusReceived  Status = "received"
	StatusTriaging  Status = "triaging"
	StatusScanning  Status = "scanning"
	StatusEnriching Status = "enriching"
	StatusRewriting Status = "rewriting"
	StatusDeciding  Status = "deciding"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var statusRank = map[Status]int{
	StatusReceived:  0,
	StatusTriaging:  1,
	StatusScanning:  2,
	StatusEnriching: 3,
	StatusRewriting: 4,
	StatusDeciding:  5,
	StatusCompleted: 6,
}

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ScannerFailure records a scanner that did not complete during the Scan stage.
type ScannerFailure struct {
	Scanner string `json:"scanner"`
	Reason  string `json:"reason"`
}

// Annotation is a structured record of a non-fatal failure observed during
// processing. Annotations never abort the pipeline; they travel with the Job
// into the audit trail.
type Annotation struct {
	Stage  string `json:"stage"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Annotation codes for non-fatal failures.
const (
	CodeClassificationFailed = "classification_failed"
	CodeScannerFailed        = "scanner_failed"
	CodeEnrichmentPartial    = "enrichment_partial"
	CodeRewriteFailed        = "rewrite_failed"
)

// Job is one document's end-to-end audit instance. A Job exclusively owns its
// violations, suggestions, and decision; nothing is shared across Jobs except
// the Memory Bank.
type Job struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Status     Status    `json:"status"`

	// DocumentType is set once by Triage and immutable thereafter.
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"classification_confidence"`

	// Chunks are assigned at intake with stable indices and never reordered.
	Chunks []Chunk `json:"chunks"`

	Violations  []Violation              `json:"violations"`
	Suggestions map[uuid.UUID]Suggestion `json:"suggestions"`
	Decision    *Decision                `json:"decision,omitempty"`

	// Degraded is set when at least one scanner failed to complete. A
	// degraded Job can never resolve to AutoApprove or AutoFix.
	Degraded       bool             `json:"degraded"`
	FailedScanners []ScannerFailure `json:"failed_scanners,omitempty"`
	Annotations    []Annotation     `json:"annotations,omitempty"`

	// FailureStage and FailureCause are populated only when Status is Failed.
	FailureStage string `json:"failure_stage,omitempty"`
	FailureCause string `json:"failure_cause,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a Job in the Received state for the given document chunks.
func New(documentID uuid.UUID, chunks []Chunk) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Status:      StatusReceived,
		Chunks:      chunks,
		Violations:  make([]Violation, 0),
		Suggestions: make(map[uuid.UUID]Suggestion),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Advance transitions the Job to the next status. Transitions must follow the
// declared order; skipping forward, moving backward, or leaving a terminal
// status returns ErrInvalidTransition.
func (j *Job) Advance(next Status) error {
	if j.Status.Terminal() {
		return ErrJobTerminal
	}

	currentRank, ok := statusRank[j.Status]
	if !ok {
		return ErrInvalidTransition
	}

	nextRank, ok := statusRank[next]
	if !ok || nextRank != currentRank+1 {
		return ErrInvalidTransition
	}

	j.Status = next
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail moves the Job to the terminal Failed status, recording the stage that
// failed and the triggering cause. Failing an already-terminal Job is a no-op
// returning ErrJobTerminal.
func (j *Job) Fail(stage, cause string) error {
	if j.Status.Terminal() {
		return ErrJobTerminal
	}

	j.Status = StatusFailed
	j.FailureStage = stage
	j.FailureCause = cause
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordScannerFailure marks the Job degraded and appends the failed scanner.
func (j *Job) RecordScannerFailure(scanner, reason string) {
	j.Degraded = true
	j.FailedScanners = append(j.FailedScanners, ScannerFailure{
		Scanner: scanner,
		Reason:  reason,
	})
	j.Annotate(string(StatusScanning), CodeScannerFailed, scanner+": "+reason)
}

// Annotate appends a structured non-fatal failure record.
func (j *Job) Annotate(stage, code, detail string) {
	j.Annotations = append(j.Annotations, Annotation{
		Stage:  stage,
		Code:   code,
		Detail: detail,
	})
}

// AttachSuggestion stores a suggestion for its violation and links the
// violation back to it. A violation holds at most one suggestion; a second
// attachment returns ErrSuggestionExists.
func (j *Job) AttachSuggestion(s Suggestion) error {
	if _, ok := j.Suggestions[s.ViolationID]; ok {
		return ErrSuggestionExists
	}

	for i := range j.Violations {
		if j.Violations[i].ID == s.ViolationID {
			id := s.ID
			j.Violations[i].SuggestionID = &id
			j.Suggestions[s.ViolationID] = s
			return nil
		}
	}

	return ErrViolationNotFound
}
