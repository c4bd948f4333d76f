// Package pipeline implements the audit orchestrator: it drives a Job from
// Received to Completed or Failed through Triage, a parallel Scan fan-out,
// Enrichment, Rewrite, and Decision, checkpointing after every stage so an
// interrupted Job never strands in an intermediate state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/compliance-sentinel/sentinel/internal/approval"
	"github.com/compliance-sentinel/sentinel/internal/capability"
	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/internal/memorybank"
	"github.com/compliance-sentinel/sentinel/internal/scanners"
)

// Checkpointer persists a Job snapshot after each stage transition. A
// checkpoint failure is a storage failure and fails the Job.
type Checkpointer interface {
	Checkpoint(ctx context.Context, job *jobs.Job) error
}

// Config holds the orchestrator's tunables.
type Config struct {
	// ScannerTimeout bounds each scanner call in the fan-out.
	ScannerTimeout time.Duration
	// RewriteConcurrency bounds concurrent rewrite capability calls.
	RewriteConcurrency int
	// EnrichmentK is how many similar historical violations to attach.
	EnrichmentK int
	// ClassifySampleChars is how much leading text triage classifies on.
	ClassifySampleChars int
	// Approval carries the decision thresholds.
	Approval approval.Config
}

// Runtime bundles the collaborators the pipeline stages require. It is
// assembled by composition code from infrastructure and domain systems.
type Runtime struct {
	Scanners    []scanners.Scanner
	Memory      memorybank.System
	Classifier  capability.Classifier
	Rewriter    capability.Rewriter
	Redactor    capability.Redactor
	Embedder    capability.Embedder
	Checkpoints Checkpointer
	Logger      *slog.Logger
	Config      Config
}

// Pipeline coordinates one Job at a time per Run call. Multiple Runs may be
// in flight concurrently; Jobs share no mutable state except the Memory Bank.
type Pipeline struct {
	rt *Runtime
}

// New creates a Pipeline over the given runtime.
func New(rt *Runtime) *Pipeline {
	return &Pipeline{rt: rt}
}

type stage struct {
	status jobs.Status
	run    func(ctx context.Context, job *jobs.Job) error
}

// Run drives the Job through every stage. The returned Job is always
// terminal: Completed with a Decision, or Failed with the triggering stage
// and cause. Cancellation of ctx propagates to all in-flight capability
// calls and fails the Job with cause cancelled.
func (p *Pipeline) Run(ctx context.Context, job *jobs.Job) (*jobs.Job, error) {
	stages := []stage{
		{jobs.StatusTriaging, p.triage},
		{jobs.StatusScanning, p.scan},
		{jobs.StatusEnriching, p.enrich},
		{jobs.StatusRewriting, p.rewrite},
		{jobs.StatusDeciding, p.decide},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return p.fail(ctx, job, string(s.status), CauseCancelled, ErrCancelled)
		}

		if err := job.Advance(s.status); err != nil {
			return p.fail(ctx, job, string(s.status), err.Error(), err)
		}

		if err := s.run(ctx, job); err != nil {
			if cancelled(err) {
				return p.fail(ctx, job, string(s.status), CauseCancelled, ErrCancelled)
			}
			return p.fail(ctx, job, string(s.status), err.Error(), err)
		}

		if err := p.checkpoint(ctx, job); err != nil {
			return p.fail(ctx, job, string(s.status), fmt.Sprintf("checkpoint: %v", err), err)
		}
	}

	if err := job.Advance(jobs.StatusCompleted); err != nil {
		return p.fail(ctx, job, string(jobs.StatusCompleted), err.Error(), err)
	}

	if err := p.checkpoint(ctx, job); err != nil {
		// Reopen so the terminal failure can be recorded: a Job whose final
		// checkpoint never landed is not durably complete.
		job.Status = jobs.StatusDeciding
		return p.fail(ctx, job, string(jobs.StatusCompleted), fmt.Sprintf("checkpoint: %v", err), err)
	}

	p.rt.Logger.Info(
		"job completed",
		"job", job.ID,
		"outcome", job.Decision.Outcome,
		"score", job.Decision.Score,
		"violations", len(job.Violations),
		"degraded", job.Degraded,
	)

	return job, nil
}

// triage classifies the document type from leading text. Classification
// failure is non-fatal: the type degrades to unknown, which only disables
// type-specific rules.
func (p *Pipeline) triage(ctx context.Context, job *jobs.Job) error {
	text := jobs.JoinChunks(job.Chunks)
	if limit := p.rt.Config.ClassifySampleChars; limit > 0 && len(text) > limit {
		text = text[:limit]
	}

	result, err := p.rt.Classifier.Classify(ctx, text)
	if err != nil {
		if cancelled(err) {
			return err
		}
		job.DocumentType = capability.DocumentTypeUnknown
		job.Annotate(string(jobs.StatusTriaging), jobs.CodeClassificationFailed, err.Error())
		p.rt.Logger.Warn("triage classification failed", "job", job.ID, "error", err)
		return nil
	}

	job.DocumentType = result.DocumentType
	job.Confidence = result.Confidence

	p.rt.Logger.Info(
		"job triaged",
		"job", job.ID,
		"document_type", job.DocumentType,
		"confidence", job.Confidence,
	)

	return nil
}

// decide computes the terminal disposition. Pure over the Job's violation
// set; a degraded Job floors at RequireReview. The decision is stamped here,
// when it is recorded on the Job.
func (p *Pipeline) decide(_ context.Context, job *jobs.Job) error {
	decision := approval.Decide(
		job.Violations,
		job.Suggestions,
		job.Degraded,
		p.rt.Config.Approval,
	)
	decision.DecidedAt = time.Now().UTC()
	job.Decision = &decision
	return nil
}

func (p *Pipeline) checkpoint(ctx context.Context, job *jobs.Job) error {
	return p.rt.Checkpoints.Checkpoint(ctx, job)
}

// fail transitions the Job to Failed and checkpoints the terminal state on a
// detached context so the failure itself survives cancellation.
func (p *Pipeline) fail(ctx context.Context, job *jobs.Job, stage, cause string, err error) (*jobs.Job, error) {
	if failErr := job.Fail(stage, cause); failErr == nil {
		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if cpErr := p.checkpoint(detached, job); cpErr != nil {
			p.rt.Logger.Error("failed job checkpoint failed", "job", job.ID, "error", cpErr)
		}
	}

	p.rt.Logger.Error("job failed", "job", job.ID, "stage", stage, "cause", cause)
	return job, fmt.Errorf("job %s failed at %s: %w", job.ID, stage, err)
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
