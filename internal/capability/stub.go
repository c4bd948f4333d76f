package capability

import "context"

// StubRewriter is the development rewrite capability: deterministic output,
// no network. Used when no model provider is configured so the pipeline is
// fully exercisable offline.
type StubRewriter struct{}

// NewStubRewriter creates a stub rewrite capability.
func NewStubRewriter() *StubRewriter {
	return &StubRewriter{}
}

// Rewrite returns a canned remediation derived from the redacted excerpt.
func (s *StubRewriter) Rewrite(_ context.Context, req RewriteRequest) (*RewriteResult, error) {
	citations := req.Citations()

	return &RewriteResult{
		Replacement: req.Excerpt + " [COMPLIANCE FIX APPLIED]",
		Explanation: []string{
			"Applied policy compliance fix",
			"Maintains document intent",
			"Follows template guidelines",
		},
		Citations: citations,
	}, nil
}

// Citations derives policy citations from the request context: the matched
// rule when present, otherwise the violation kind.
func (r RewriteRequest) Citations() []string {
	if r.RuleID != "" {
		return []string{r.RuleID}
	}
	return []string{r.Kind}
}
