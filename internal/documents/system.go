package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/pkg/pagination"
)

// System is the document domain contract: registry CRUD plus the content
// and status operations the audit pipeline consumes.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Text downloads the document's blob and returns its content as text.
	// Returns ErrNotText for content types that cannot be audited as text.
	Text(ctx context.Context, id uuid.UUID) (string, error)

	// SetStatus transitions a document's audit status.
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}
