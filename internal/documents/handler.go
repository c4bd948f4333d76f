package documents

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/compliance-sentinel/sentinel/pkg/handlers"
	"github.com/compliance-sentinel/sentinel/pkg/pagination"
	"github.com/compliance-sentinel/sentinel/pkg/routes"
)

// Handler exposes the document endpoints.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest is the JSON body of the search endpoint: a page request
// plus document filters.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the document route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a page of documents filtered by query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	h.respondPage(w, r, page, FiltersFromQuery(r.URL.Query()))
}

// Search is the POST counterpart of List: page request and filters arrive
// as a JSON body instead of query parameters.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	req.PageRequest.Normalize(h.pagination)
	h.respondPage(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) respondPage(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns one document by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Upload registers a document from a multipart form carrying the file and
// its submission metadata. PDF uploads get a page count extracted with
// pdfcpu; other content types leave it unset.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	cmd, err := h.parseUpload(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, doc)
}

// Delete removes a document by id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path segment, responding 400 on failure.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) parseUpload(r *http.Request) (CreateCommand, error) {
	department := r.FormValue("department")
	if department == "" {
		return CreateCommand{}, ErrInvalidFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return CreateCommand{}, ErrInvalidFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return CreateCommand{}, ErrInvalidFile
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)

	return CreateCommand{
		Data:         data,
		Filename:     header.Filename,
		ContentType:  contentType,
		Department:   department,
		UploaderHash: r.FormValue("uploader_hash"),
		PageCount:    h.pdfPageCount(data, contentType),
	}, nil
}

// detectContentType trusts the client header unless it is empty or the
// generic octet-stream, in which case it sniffs the payload.
func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header == "" || header == "application/octet-stream" {
		return http.DetectContentType(data)
	}
	return header
}

func (h *Handler) pdfPageCount(data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		h.logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}
	return &count
}
