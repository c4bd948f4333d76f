// Package capability defines the narrow contracts for the external
// capabilities the audit pipeline consumes (document classification, rewrite
// generation, text embedding, and redaction) together with the local
// implementations the service ships with.
package capability

import (
	"context"
	"fmt"
)

// Classification is the result of document-type triage.
type Classification struct {
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
}

// DocumentTypeUnknown is the classification assigned when triage fails or
// cannot determine a type. Unknown disables document-type-specific rules but
// never fails the Job.
const DocumentTypeUnknown = "unknown"

// Classifier determines a document's type from its leading text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// RewriteRequest carries one violation plus its enrichment context to the
// rewrite capability. Every text field must already be redacted: the request
// crosses the trust boundary.
type RewriteRequest struct {
	Kind             string   `json:"kind"`
	RuleID           string   `json:"rule_id,omitempty"`
	Severity         string   `json:"severity"`
	Excerpt          string   `json:"excerpt"`
	Message          string   `json:"message"`
	PolicySnippet    string   `json:"policy_snippet,omitempty"`
	Precedents       []string `json:"precedents,omitempty"`
	StyleConstraints string   `json:"style_constraints,omitempty"`
}

// RewriteResult is the rewrite capability's proposed remediation.
type RewriteResult struct {
	Replacement string   `json:"replacement"`
	Explanation []string `json:"explanation"`
	Citations   []string `json:"citations"`
}

// Validate enforces the replacement bounds the pipeline requires: non-empty
// and, when maxLen is positive, at most maxLen bytes. Oversized replacements
// are rejected rather than truncated; a clipped clause is not a remediation.
func (r *RewriteResult) Validate(maxLen int) error {
	if r.Replacement == "" {
		return ErrEmptyRewrite
	}
	if maxLen > 0 && len(r.Replacement) > maxLen {
		return fmt.Errorf("%w: %d bytes over %d limit", ErrOversizeRewrite, len(r.Replacement), maxLen)
	}
	return nil
}

// Rewriter proposes a remediation for a single violation. Calls may fail
// independently; a failed call leaves that violation without a suggestion.
type Rewriter interface {
	Rewrite(ctx context.Context, req RewriteRequest) (*RewriteResult, error)
}

// Embedder produces fixed-dimension vectors from text. Dimension and Version
// identify the vector space; the Memory Bank rejects vectors from a
// different space.
type Embedder interface {
	Embed(text string) []float32
	Dimension() int
	Version() string
}

// Redactor removes sensitive spans from text. Rewrite calls must apply it
// before text leaves the process.
type Redactor interface {
	Redact(text string) string
}
