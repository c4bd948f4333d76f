package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/compliance-sentinel/sentinel/internal/capability"
	"github.com/compliance-sentinel/sentinel/internal/jobs"
)

// rewrite asks the rewrite capability for a remediation of every
// auto-fix-eligible violation. Calls run concurrently under a bounded limit;
// one failed call leaves that violation without a suggestion and never
// blocks the others. Every text field crossing the trust boundary must be
// redacted before the call is made.
func (p *Pipeline) rewrite(ctx context.Context, job *jobs.Job) error {
	eligible := make([]*jobs.Violation, 0, len(job.Violations))
	for i := range job.Violations {
		if job.Violations[i].Severity.AtMost(p.rt.Config.Approval.AutoFixSeverity) {
			eligible = append(eligible, &job.Violations[i])
		}
	}

	if len(eligible) == 0 {
		return nil
	}

	results := make([]*jobs.Suggestion, len(eligible))
	failures := make([]error, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.rt.Config.RewriteConcurrency)

	for i, v := range eligible {
		g.Go(func() error {
			result, err := p.rt.Rewriter.Rewrite(gctx, p.rewriteRequest(v))
			if err != nil {
				failures[i] = err
				return nil
			}

			results[i] = &jobs.Suggestion{
				ID:          uuid.New(),
				ViolationID: v.ID,
				Replacement: result.Replacement,
				Citations:   result.Citations,
				Explanation: result.Explanation,
			}
			return nil
		})
	}

	g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, v := range eligible {
		if failures[i] != nil {
			job.Annotate(
				string(jobs.StatusRewriting),
				jobs.CodeRewriteFailed,
				fmt.Sprintf("violation %s: %v", v.ID, failures[i]),
			)
			continue
		}

		if results[i] != nil {
			if err := job.AttachSuggestion(*results[i]); err != nil {
				return fmt.Errorf("attach suggestion for %s: %w", v.ID, err)
			}
		}
	}

	p.rt.Logger.Info(
		"rewrite complete",
		"job", job.ID,
		"eligible", len(eligible),
		"suggestions", len(job.Suggestions),
	)

	return nil
}

// rewriteRequest assembles the redacted payload for one violation. Raw
// evidence never appears here: the redactor runs over every field sourced
// from document text.
func (p *Pipeline) rewriteRequest(v *jobs.Violation) capability.RewriteRequest {
	redact := p.rt.Redactor.Redact

	req := capability.RewriteRequest{
		Kind:             v.Kind,
		RuleID:           v.RuleID,
		Severity:         string(v.Severity),
		Excerpt:          redact(v.Evidence),
		Message:          redact(v.Message),
		StyleConstraints: "Maintain professional tone",
	}

	if v.Policy != nil {
		req.PolicySnippet = redact(v.Policy.Text)
	}

	for _, precedent := range v.Precedents {
		req.Precedents = append(req.Precedents, redact(precedent.Summary))
	}

	return req
}
