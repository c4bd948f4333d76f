package pipeline

import (
	"context"
	"fmt"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/internal/memorybank"
)

// enrich joins every violation with its policy snippet and up to K similar
// historical violations from the Memory Bank, then records the violation as
// a new historical entry. Every failure here is per-violation and non-fatal:
// the violation proceeds unenriched with an enrichment_partial annotation.
func (p *Pipeline) enrich(ctx context.Context, job *jobs.Job) error {
	for i := range job.Violations {
		if err := ctx.Err(); err != nil {
			return err
		}

		v := &job.Violations[i]

		if err := p.attachPolicy(ctx, job, v); err != nil {
			job.Annotate(
				string(jobs.StatusEnriching),
				jobs.CodeEnrichmentPartial,
				fmt.Sprintf("policy lookup for %s: %v", v.ID, err),
			)
		}

		if err := p.attachPrecedents(ctx, v); err != nil {
			job.Annotate(
				string(jobs.StatusEnriching),
				jobs.CodeEnrichmentPartial,
				fmt.Sprintf("precedent lookup for %s: %v", v.ID, err),
			)
		}

		if err := p.recordViolation(ctx, v); err != nil {
			job.Annotate(
				string(jobs.StatusEnriching),
				jobs.CodeEnrichmentPartial,
				fmt.Sprintf("record violation %s: %v", v.ID, err),
			)
		}
	}

	return nil
}

func (p *Pipeline) attachPolicy(ctx context.Context, job *jobs.Job, v *jobs.Violation) error {
	key := v.RuleID
	if key == "" {
		key = v.Kind
	}

	snippet, err := p.rt.Memory.PolicySnippet(ctx, job.DocumentType, key)
	if err != nil {
		return err
	}

	v.Policy = &jobs.PolicyContext{
		PolicyID: snippet.PolicyID,
		Text:     snippet.Text,
	}
	return nil
}

func (p *Pipeline) attachPrecedents(ctx context.Context, v *jobs.Violation) error {
	text := v.Evidence
	if text == "" {
		text = v.Message
	}
	if text == "" {
		return nil
	}

	embedding := p.rt.Embedder.Embed(text)
	matches, err := p.rt.Memory.FindSimilarViolations(ctx, embedding, p.rt.Config.EnrichmentK)
	if err != nil {
		return err
	}

	precedents := make([]jobs.Precedent, 0, len(matches))
	for _, m := range matches {
		precedents = append(precedents, jobs.Precedent{
			RecordID: m.Record.ID,
			Score:    m.Score,
			Summary:  m.Record.Summary,
			Outcome:  m.Record.Resolution,
		})
	}

	v.Precedents = precedents
	return nil
}

// recordViolation writes the violation into the Memory Bank so future audits
// can find it as a precedent. Summaries are redacted before storage: bank
// content feeds rewrite prompts downstream.
func (p *Pipeline) recordViolation(ctx context.Context, v *jobs.Violation) error {
	summary := v.Message
	if v.Evidence != "" {
		summary = fmt.Sprintf("%s: %s", v.Message, p.rt.Redactor.Redact(v.Evidence))
	}

	text := v.Evidence
	if text == "" {
		text = v.Message
	}

	_, err := p.rt.Memory.RecordViolation(ctx, memorybank.RecordViolationCommand{
		Kind:             v.Kind,
		RuleID:           v.RuleID,
		Severity:         string(v.Severity),
		Summary:          summary,
		Embedding:        p.rt.Embedder.Embed(text),
		EmbeddingVersion: p.rt.Embedder.Version(),
	})
	return err
}
