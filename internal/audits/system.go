package audits

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/pkg/pagination"
)

// System defines the public contract for audit domain operations. It also
// serves as the pipeline's Checkpointer via Checkpoint.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Audit], error)

	Find(ctx context.Context, id uuid.UUID) (*Audit, error)
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Audit, error)

	// Submit accepts a document for auditing and starts the pipeline in the
	// background. The returned Receipt carries the job id for follow-up.
	Submit(ctx context.Context, cmd SubmitCommand) (*Receipt, error)

	// Bundle opens the archived result bundle for a completed audit. The
	// caller closes the reader. ErrNoBundle when no bundle has been archived.
	Bundle(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// PruneBefore deletes terminal audit records last updated before cutoff.
	// Returns the number of records removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Checkpoint upserts the audit record from the Job's current state.
	Checkpoint(ctx context.Context, job *jobs.Job) error
}
