package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/compliance-sentinel/sentinel/internal/audits"
	"github.com/compliance-sentinel/sentinel/internal/config"
	"github.com/compliance-sentinel/sentinel/pkg/lifecycle"
)

const sweepTimeout = 5 * time.Minute

// retentionRunner prunes terminal audit records older than the configured
// maximum age on a cron schedule.
type retentionRunner struct {
	cfg    *config.RetentionConfig
	audits audits.System
	cron   *cron.Cron
	logger *slog.Logger
}

func newRetentionRunner(
	cfg *config.RetentionConfig,
	audits audits.System,
	logger *slog.Logger,
) *retentionRunner {
	return &retentionRunner{
		cfg:    cfg,
		audits: audits,
		cron:   cron.New(),
		logger: logger.With("system", "retention"),
	}
}

func (r *retentionRunner) Start(lc *lifecycle.Coordinator) error {
	if !r.cfg.Enabled {
		r.logger.Info("retention sweep disabled")
		return nil
	}

	if _, err := r.cron.AddFunc(r.cfg.Schedule, r.sweep); err != nil {
		return err
	}

	r.cron.Start()
	r.logger.Info(
		"retention sweep scheduled",
		"schedule", r.cfg.Schedule,
		"max_age", r.cfg.MaxAge,
	)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-r.cron.Stop().Done()
		r.logger.Info("retention sweep stopped")
	})

	return nil
}

func (r *retentionRunner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-r.cfg.MaxAgeDuration())
	if _, err := r.audits.PruneBefore(ctx, cutoff); err != nil {
		r.logger.Error("retention sweep failed", "error", err)
	}
}
