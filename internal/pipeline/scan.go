package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/internal/scanners"
)

// scanOutcome carries one scanner's typed result across the fan-in barrier:
// either its violations or the reason it failed, never an unwound panic path
// through the pipeline.
type scanOutcome struct {
	scanner    string
	violations []jobs.Violation
	err        error
}

// scan fans out to every registered scanner concurrently, each bounded by
// the per-scanner timeout, and merges results only after all scanners have
// completed or timed out. A failed scanner degrades the Job; it never fails
// it. Job cancellation propagates to every in-flight scanner.
func (p *Pipeline) scan(ctx context.Context, job *jobs.Job) error {
	outcomes := make([]scanOutcome, len(p.rt.Scanners))
	sc := scanners.Context{DocumentType: job.DocumentType}

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range p.rt.Scanners {
		g.Go(func() error {
			scanCtx, cancel := context.WithTimeout(gctx, p.rt.Config.ScannerTimeout)
			defer cancel()

			violations, err := s.Scan(scanCtx, job.Chunks, sc)
			outcomes[i] = scanOutcome{
				scanner:    s.Name(),
				violations: violations,
				err:        err,
			}
			return nil
		})
	}

	// Fan-in barrier: no aggregation before every scanner has resolved.
	g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, outcome := range outcomes {
		if outcome.err != nil {
			reason := outcome.err.Error()
			if errors.Is(outcome.err, context.DeadlineExceeded) {
				reason = "timeout"
			}

			job.RecordScannerFailure(outcome.scanner, reason)
			p.rt.Logger.Warn(
				"scanner failed",
				"job", job.ID,
				"scanner", outcome.scanner,
				"reason", reason,
			)
			continue
		}

		job.Violations = append(job.Violations, outcome.violations...)
	}

	p.rt.Logger.Info(
		"scan complete",
		"job", job.ID,
		"violations", len(job.Violations),
		"failed_scanners", len(job.FailedScanners),
	)

	return nil
}
