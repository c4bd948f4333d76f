package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades how serious a violation is.
type Severity string

// Severity levels in ascending order.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityWeights = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     5,
	SeverityCritical: 10,
}

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Weight returns the severity's contribution to the violation score.
// Unknown severities weigh the same as low.
func (s Severity) Weight() int {
	if w, ok := severityWeights[s]; ok {
		return w
	}
	return severityWeights[SeverityLow]
}

// AtMost reports whether s is no more severe than limit.
func (s Severity) AtMost(limit Severity) bool {
	sr, ok := severityRank[s]
	if !ok {
		sr = 0
	}
	lr, ok := severityRank[limit]
	if !ok {
		lr = 0
	}
	return sr <= lr
}

// Valid reports whether s is a recognized severity level.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Location addresses a violation within the chunked document.
type Location struct {
	Chunk int `json:"chunk"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// PolicyContext is the policy snippet attached to a violation during
// Enrichment.
type PolicyContext struct {
	PolicyID string `json:"policy_id"`
	Text     string `json:"text"`
}

// Precedent references a similar historical violation found in the Memory
// Bank during Enrichment.
type Precedent struct {
	RecordID uuid.UUID `json:"record_id"`
	Score    float64   `json:"score"`
	Summary  string    `json:"summary"`
	Outcome  string    `json:"outcome"`
}

// Violation is a single detected compliance issue. It is created by exactly
// one scanner, enriched once, and never mutated afterward except to link a
// suggestion.
type Violation struct {
	ID         uuid.UUID `json:"id"`
	Scanner    string    `json:"scanner"`
	Kind       string    `json:"kind"`
	RuleID     string    `json:"rule_id,omitempty"`
	Severity   Severity  `json:"severity"`
	Confidence float64   `json:"confidence"`
	Location   Location  `json:"location"`

	// Evidence is the raw matched text. It must pass through the redaction
	// capability before leaving the trust boundary.
	Evidence string `json:"evidence"`
	Message  string `json:"message"`

	Policy       *PolicyContext `json:"policy,omitempty"`
	Precedents   []Precedent    `json:"precedents,omitempty"`
	SuggestionID *uuid.UUID     `json:"suggestion_id,omitempty"`
}

// Suggestion is a proposed remediation for one violation, produced by the
// rewrite capability. Immutable once created.
type Suggestion struct {
	ID          uuid.UUID `json:"id"`
	ViolationID uuid.UUID `json:"violation_id"`
	Replacement string    `json:"replacement"`
	Citations   []string  `json:"citations"`
	Explanation []string  `json:"explanation"`
}

// Outcome is the final disposition of an audit.
type Outcome string

// Dispositions a Job can resolve to.
const (
	OutcomeAutoApprove   Outcome = "auto_approve"
	OutcomeAutoFix       Outcome = "auto_fix"
	OutcomeRequireReview Outcome = "require_review"
	OutcomeReject        Outcome = "reject"
)

// Decision is the terminal disposition for a Job, computed exactly once.
type Decision struct {
	Outcome   Outcome   `json:"outcome"`
	Score     int       `json:"violation_score"`
	Reason    string    `json:"reason"`
	DecidedAt time.Time `json:"decided_at"`
}
