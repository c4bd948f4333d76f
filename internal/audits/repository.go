package audits

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/documents"
	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/internal/pipeline"
	"github.com/compliance-sentinel/sentinel/pkg/pagination"
	"github.com/compliance-sentinel/sentinel/pkg/query"
	"github.com/compliance-sentinel/sentinel/pkg/repository"
	"github.com/compliance-sentinel/sentinel/pkg/storage"
)

type repo struct {
	db         *sql.DB
	pipeline   *pipeline.Pipeline
	docs       documents.System
	blobs      storage.System
	jobTimeout time.Duration
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit repository implementing the System interface. It
// installs itself as the pipeline runtime's checkpointer so every stage
// transition lands in the audits table.
func New(
	db *sql.DB,
	rt *pipeline.Runtime,
	docs documents.System,
	blobs storage.System,
	jobTimeout time.Duration,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	r := &repo{
		db:         db,
		docs:       docs,
		blobs:      blobs,
		jobTimeout: jobTimeout,
		logger:     logger.With("system", "audits"),
		pagination: pagination,
	}

	rt.Checkpoints = r
	r.pipeline = pipeline.New(rt)
	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Audit], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "DocumentType", "Outcome")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audits: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAudit)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Audit, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAudit)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Audit, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("DocumentID", documentID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanAudit)
	if err != nil {
		return nil, fmt.Errorf("query document audits: %w", err)
	}
	return items, nil
}

func (r *repo) Submit(ctx context.Context, cmd SubmitCommand) (*Receipt, error) {
	text := cmd.Text
	if text == "" {
		fetched, err := r.docs.Text(ctx, cmd.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("fetch document text: %w", err)
		}
		text = fetched
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	job := jobs.New(cmd.DocumentID, jobs.ChunkText(text))

	if err := r.Checkpoint(ctx, job); err != nil {
		return nil, fmt.Errorf("initial checkpoint: %w", err)
	}

	if err := r.docs.SetStatus(ctx, cmd.DocumentID, documents.StatusAuditing); err != nil {
		r.logger.Warn("document status update failed", "document", cmd.DocumentID, "error", err)
	}

	go r.run(context.WithoutCancel(ctx), job)

	r.logger.Info("audit submitted", "job", job.ID, "document", cmd.DocumentID)
	return &Receipt{
		JobID:      job.ID,
		DocumentID: cmd.DocumentID,
		Status:     job.Status,
	}, nil
}

// run drives a submitted job to a terminal state in the background. The
// pipeline records the terminal audit itself; run only bounds the job's
// total runtime and settles the document status afterward.
func (r *repo) run(ctx context.Context, job *jobs.Job) {
	runCtx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()

	if _, err := r.pipeline.Run(runCtx, job); err != nil {
		r.logger.Error("audit job failed", "job", job.ID, "error", err)
	}

	if err := r.docs.SetStatus(ctx, job.DocumentID, documents.StatusAudited); err != nil {
		r.logger.Warn("document status update failed", "document", job.DocumentID, "error", err)
	}
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM audits WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.blobs.Delete(ctx, bundleKey(id)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("bundle delete failed", "id", id, "error", err)
	}

	r.logger.Info("audit deleted", "id", id)
	return nil
}

func (r *repo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM audits
		 WHERE updated_at < $1 AND status IN ($2, $3)`,
		cutoff, jobs.StatusCompleted, jobs.StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("prune audits: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		r.logger.Info("audits pruned", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}

func (r *repo) Checkpoint(ctx context.Context, job *jobs.Job) error {
	snapshot, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job snapshot: %w", err)
	}

	var outcome *string
	var score *int
	if job.Decision != nil {
		o := string(job.Decision.Outcome)
		s := job.Decision.Score
		outcome = &o
		score = &s
	}

	var failureStage, failureCause *string
	if job.FailureStage != "" {
		failureStage = &job.FailureStage
	}
	if job.FailureCause != "" {
		failureCause = &job.FailureCause
	}

	q := `
		INSERT INTO audits(
			id, document_id, status, document_type, outcome, score,
			degraded, failure_stage, failure_cause, snapshot
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			document_type = EXCLUDED.document_type,
			outcome = EXCLUDED.outcome,
			score = EXCLUDED.score,
			degraded = EXCLUDED.degraded,
			failure_stage = EXCLUDED.failure_stage,
			failure_cause = EXCLUDED.failure_cause,
			snapshot = EXCLUDED.snapshot,
			updated_at = NOW()`

	args := []any{
		job.ID,
		job.DocumentID,
		job.Status,
		job.DocumentType,
		outcome,
		score,
		job.Degraded,
		failureStage,
		failureCause,
		snapshot,
	}

	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("checkpoint job %s: %w", job.ID, err)
	}

	if job.Status == jobs.StatusCompleted {
		if err := r.archiveBundle(ctx, job.ID, snapshot); err != nil {
			r.logger.Warn("bundle archive failed", "job", job.ID, "error", err)
		}
	}
	return nil
}

// archiveBundle uploads the terminal job snapshot as a downloadable result
// bundle. The audits row is already durable, so an upload failure is logged
// by the caller rather than failing the checkpoint.
func (r *repo) archiveBundle(ctx context.Context, id uuid.UUID, snapshot []byte) error {
	return r.blobs.Upload(ctx, bundleKey(id), bytes.NewReader(snapshot), "application/json")
}

func (r *repo) Bundle(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	rc, err := r.blobs.Download(ctx, bundleKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoBundle
		}
		return nil, fmt.Errorf("download audit bundle %s: %w", id, err)
	}
	return rc, nil
}

func bundleKey(id uuid.UUID) string {
	return "audits/" + id.String() + "/bundle.json"
}
