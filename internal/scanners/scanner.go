// Package scanners implements the pluggable violation detectors: PII scanner,
// policy rule engine, template drift detector, and signature checker. The
// variants form a closed set behind one interface, registered in a fixed list
// the orchestrator fans out over.
package scanners

import (
	"context"
	"sort"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

// Context carries per-job inputs shared by all scanners.
type Context struct {
	// DocumentType is the triage classification, or unknown when triage
	// failed. Unknown disables document-type-specific checks.
	DocumentType string
}

// Scanner detects violations in a chunked document. Implementations must
// respect ctx cancellation, return violations ordered by chunk index then
// start offset, and report failure through the error return only. A failed
// scanner degrades the job, it never aborts it.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, chunks []jobs.Chunk, sc Context) ([]jobs.Violation, error)
}

// sortViolations orders violations by chunk index, then start offset.
func sortViolations(violations []jobs.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Location.Chunk != violations[j].Location.Chunk {
			return violations[i].Location.Chunk < violations[j].Location.Chunk
		}
		return violations[i].Location.Start < violations[j].Location.Start
	})
}
