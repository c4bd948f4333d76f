// Package approval implements the decision engine that converts a Job's
// violation set into a final disposition. Decide is a pure function:
// deterministic, side-effect free, and order-independent over the violation
// set.
package approval

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

// Config holds the decision thresholds. Defaults match the documented
// decision table; they are configuration, not constants.
type Config struct {
	// AutoFixScore is the maximum violation score eligible for AutoFix.
	AutoFixScore int
	// ReviewScore is the maximum violation score eligible for RequireReview;
	// anything above is rejected.
	ReviewScore int
	// AutoFixSeverity is the most severe violation level the rewrite
	// capability is asked to fix.
	AutoFixSeverity jobs.Severity
}

// DefaultConfig returns the documented decision thresholds.
func DefaultConfig() Config {
	return Config{
		AutoFixScore:    2,
		ReviewScore:     5,
		AutoFixSeverity: jobs.SeverityMedium,
	}
}

// Score computes the weighted violation score: critical=10, high=5,
// medium=2, low=1.
func Score(violations []jobs.Violation) int {
	total := 0
	for _, v := range violations {
		total += v.Severity.Weight()
	}
	return total
}

// SuggestionsAvailable reports whether any auto-fix-eligible violation has a
// suggestion attached.
func SuggestionsAvailable(
	violations []jobs.Violation,
	suggestions map[uuid.UUID]jobs.Suggestion,
	limit jobs.Severity,
) bool {
	for _, v := range violations {
		if !v.Severity.AtMost(limit) {
			continue
		}
		if _, ok := suggestions[v.ID]; ok {
			return true
		}
	}
	return false
}

// Decide evaluates the decision table top-down, first match wins. A degraded
// Job floors at RequireReview: absence of evidence from a failed scanner is
// not evidence of absence, so even a zero score cannot auto-approve. The
// returned Decision is unstamped; callers set DecidedAt when recording it.
func Decide(
	violations []jobs.Violation,
	suggestions map[uuid.UUID]jobs.Suggestion,
	degraded bool,
	cfg Config,
) jobs.Decision {
	score := Score(violations)
	fixable := SuggestionsAvailable(violations, suggestions, cfg.AutoFixSeverity)

	var outcome jobs.Outcome
	var reason string

	switch {
	case score == 0 && !degraded:
		outcome = jobs.OutcomeAutoApprove
		reason = "No violations detected"
	case score <= cfg.AutoFixScore && fixable && !degraded:
		outcome = jobs.OutcomeAutoFix
		reason = fmt.Sprintf("Low severity violations (%d points) with available fixes", score)
	case score <= cfg.ReviewScore:
		outcome = jobs.OutcomeRequireReview
		reason = fmt.Sprintf("Violations (%d points) require human review", score)
	default:
		outcome = jobs.OutcomeReject
		reason = fmt.Sprintf("High severity violations (%d points) cannot be auto-fixed", score)
	}

	if degraded && outcome == jobs.OutcomeRequireReview {
		reason = fmt.Sprintf("Scan degraded; human review required (%d points)", score)
	}

	return jobs.Decision{
		Outcome: outcome,
		Score:   score,
		Reason:  reason,
	}
}
