package policies

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/memorybank"
	"github.com/compliance-sentinel/sentinel/pkg/pagination"
	"github.com/compliance-sentinel/sentinel/pkg/query"
	"github.com/compliance-sentinel/sentinel/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a policy repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "policies"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Policy], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "PolicyID", "Name", "Text")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count policies: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	policies, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPolicy)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}

	result := pagination.NewPageResult(policies, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Policy, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Policy, error) {
	docTypes, err := json.Marshal(orEmpty(cmd.DocumentTypes))
	if err != nil {
		return nil, fmt.Errorf("marshal document types: %w", err)
	}

	q := `
		INSERT INTO policies(policy_id, name, text, document_types)
		VALUES ($1, $2, $3, $4)
		RETURNING id, policy_id, name, text, document_types, created_at, updated_at`

	args := []any{cmd.PolicyID, cmd.Name, cmd.Text, docTypes}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Policy, error) {
		return repository.QueryOne(ctx, tx, q, args, scanPolicy)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("policy created", "id", p.ID, "policy_id", p.PolicyID)
	return &p, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Policy, error) {
	docTypes, err := json.Marshal(orEmpty(cmd.DocumentTypes))
	if err != nil {
		return nil, fmt.Errorf("marshal document types: %w", err)
	}

	q := `
		UPDATE policies
		SET name = $1, text = $2, document_types = $3, updated_at = now()
		WHERE id = $4
		RETURNING id, policy_id, name, text, document_types, created_at, updated_at`

	args := []any{cmd.Name, cmd.Text, docTypes, id}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Policy, error) {
		return repository.QueryOne(ctx, tx, q, args, scanPolicy)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("policy updated", "id", p.ID, "policy_id", p.PolicyID)
	return &p, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM policies WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("policy deleted", "id", id)
	return nil
}

func (r *repo) Snippet(ctx context.Context, documentType, ruleID string) (*memorybank.PolicySnippet, error) {
	q, args := query.NewBuilder(projection).BuildSingle("PolicyID", ruleID)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if len(p.DocumentTypes) > 0 && !slices.Contains(p.DocumentTypes, documentType) {
		return nil, ErrNotFound
	}

	return &memorybank.PolicySnippet{
		PolicyID:      p.PolicyID,
		Text:          p.Text,
		DocumentTypes: p.DocumentTypes,
	}, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
