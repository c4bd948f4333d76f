package policies

import (
	"context"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/memorybank"
	"github.com/compliance-sentinel/sentinel/pkg/pagination"
)

// System defines the public contract for policy domain operations. It also
// serves as the Memory Bank's PolicyProvider via Snippet.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Policy], error)

	Find(ctx context.Context, id uuid.UUID) (*Policy, error)
	Create(ctx context.Context, cmd CreateCommand) (*Policy, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Policy, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Snippet resolves the policy for a rule id, filtered by document-type
	// applicability. Returns ErrNotFound when no applicable policy exists.
	Snippet(ctx context.Context, documentType, ruleID string) (*memorybank.PolicySnippet, error)
}
