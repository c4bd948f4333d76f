package scanners

import (
	"context"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

// KindPolicyViolation marks violations produced by the policy rule engine.
const KindPolicyViolation = "policy_violation"

// PolicyRuleEngine applies deterministic compliance rules filtered by
// document type.
type PolicyRuleEngine struct {
	rules []Rule
}

// NewPolicyRuleEngine creates a rule engine. A nil rule set uses the
// built-in rules.
func NewPolicyRuleEngine(rules []Rule) *PolicyRuleEngine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &PolicyRuleEngine{rules: rules}
}

func (s *PolicyRuleEngine) Name() string {
	return "policy_rule_engine"
}

// Scan runs every applicable rule over the joined document text. Rule
// findings are document-scope, anchored at the document origin.
func (s *PolicyRuleEngine) Scan(ctx context.Context, chunks []jobs.Chunk, sc Context) ([]jobs.Violation, error) {
	text := jobs.JoinChunks(chunks)
	violations := make([]jobs.Violation, 0)

	for _, rule := range s.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !rule.AppliesTo(sc.DocumentType) {
			continue
		}

		for _, finding := range rule.Check(text) {
			violations = append(violations, jobs.Violation{
				ID:         uuid.New(),
				Scanner:    s.Name(),
				Kind:       KindPolicyViolation,
				RuleID:     rule.ID,
				Severity:   rule.Severity,
				Confidence: 1.0,
				Location:   jobs.Location{Chunk: 0, Start: 0, End: 0},
				Message:    finding.Message,
			})
		}
	}

	sortViolations(violations)
	return violations, nil
}
