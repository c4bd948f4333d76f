package documents

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/pkg/pagination"
	"github.com/compliance-sentinel/sentinel/pkg/query"
	"github.com/compliance-sentinel/sentinel/pkg/repository"
	"github.com/compliance-sentinel/sentinel/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New builds the SQL-backed document repository.
// Document content lives in blob storage; rows hold metadata and the
// storage key.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	qb.WhereSearch(page.Search, "Filename", "Department")
	filters.Apply(qb)
	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	var total int
	countSQL, countArgs := qb.BuildCount()
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

// Create uploads the blob first, then inserts the row. A failed insert
// triggers a compensating blob delete so storage does not accumulate
// orphans.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	id := uuid.New()
	key := storageKey(id, cmd.Filename)

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	const q = `
		INSERT INTO documents(id, filename, content_type, size_bytes, page_count, department, uploader_hash, storage_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, filename, content_type, size_bytes, page_count, department, uploader_hash, storage_key, status, uploaded_at, updated_at`

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, []any{
			id,
			cmd.Filename,
			cmd.ContentType,
			int64(len(cmd.Data)),
			cmd.PageCount,
			cmd.Department,
			cmd.UploaderHash,
			key,
			StatusRegistered,
		}, scanDocument)
	})
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created", "id", d.ID, "filename", d.Filename)
	return &d, nil
}

// Delete removes the row, then the blob. The blob delete happens after
// commit; a failure there is logged and left for storage cleanup since the
// record is already gone.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := r.execOne(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return err
	}

	if delErr := r.storage.Delete(ctx, doc.StorageKey); delErr != nil {
		r.logger.Warn("blob delete failed after DB delete",
			"key", doc.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

// Text downloads the document blob and returns it as a string. Only
// text-like content types qualify.
func (r *repo) Text(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return "", err
	}

	if !textContentType(doc.ContentType) {
		return "", fmt.Errorf("%w: %s", ErrNotText, doc.ContentType)
	}

	reader, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("download document blob: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read document blob: %w", err)
	}
	return string(data), nil
}

func (r *repo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.execOne(ctx,
		"UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
}

// execOne runs a statement that must affect exactly one row, mapping
// repository errors onto the document sentinel errors.
func (r *repo) execOne(ctx context.Context, q string, args ...any) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, args...)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func textContentType(ct string) bool {
	if strings.HasPrefix(ct, "text/") {
		return true
	}
	switch ct {
	case "application/json", "application/xml", "application/rtf":
		return true
	}
	return false
}

// storageKey namespaces blobs by document id. The filename is sanitized to
// a bare, path-escaped base name so client input never shapes the key
// hierarchy.
func storageKey(id uuid.UUID, filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == "" {
		name = "document"
	}
	return fmt.Sprintf("documents/%s/%s", id, url.PathEscape(name))
}
