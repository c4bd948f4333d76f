package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/compliance-sentinel/sentinel/internal/capability"
	"github.com/compliance-sentinel/sentinel/internal/memorybank"
	"github.com/compliance-sentinel/sentinel/pkg/handlers"
	"github.com/compliance-sentinel/sentinel/pkg/routes"
)

const defaultSearchK = 5

type memoryHandler struct {
	memory   memorybank.System
	embedder capability.Embedder
	logger   *slog.Logger
}

type registerTemplateRequest struct {
	SourceDocID   string `json:"source_doc_id"`
	DocumentType  string `json:"document_type"`
	CanonicalText string `json:"canonical_text"`
}

type recordViolationRequest struct {
	Kind       string `json:"kind"`
	RuleID     string `json:"rule_id"`
	Severity   string `json:"severity"`
	Summary    string `json:"summary"`
	Resolution string `json:"resolution"`
}

func newMemoryHandler(
	memory memorybank.System,
	embedder capability.Embedder,
	logger *slog.Logger,
) *memoryHandler {
	return &memoryHandler{
		memory:   memory,
		embedder: embedder,
		logger:   logger.With("handler", "memory"),
	}
}

func (h *memoryHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/memory",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/templates", Handler: h.registerTemplate},
			{Method: "GET", Pattern: "/templates/search", Handler: h.searchTemplates},
			{Method: "POST", Pattern: "/violations", Handler: h.recordViolation},
			{Method: "GET", Pattern: "/violations/search", Handler: h.searchViolations},
		},
	}
}

// registerTemplate embeds the canonical text server-side so callers never
// supply raw vectors.
func (h *memoryHandler) registerTemplate(w http.ResponseWriter, r *http.Request) {
	var req registerTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	tmpl, err := h.memory.RegisterTemplate(r.Context(), memorybank.RegisterTemplateCommand{
		SourceDocID:      req.SourceDocID,
		DocumentType:     req.DocumentType,
		CanonicalText:    req.CanonicalText,
		Embedding:        h.embedder.Embed(req.CanonicalText),
		EmbeddingVersion: h.embedder.Version(),
	})
	if err != nil {
		handlers.RespondError(w, h.logger, memorybank.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, tmpl)
}

func (h *memoryHandler) searchTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, memorybank.ErrEmptyQuery)
		return
	}

	matches, err := h.memory.FindSimilarTemplates(r.Context(), h.embedder.Embed(q), parseK(r))
	if err != nil {
		handlers.RespondError(w, h.logger, memorybank.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, matches)
}

func (h *memoryHandler) recordViolation(w http.ResponseWriter, r *http.Request) {
	var req recordViolationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	record, err := h.memory.RecordViolation(r.Context(), memorybank.RecordViolationCommand{
		Kind:             req.Kind,
		RuleID:           req.RuleID,
		Severity:         req.Severity,
		Summary:          req.Summary,
		Resolution:       req.Resolution,
		Embedding:        h.embedder.Embed(req.Summary),
		EmbeddingVersion: h.embedder.Version(),
	})
	if err != nil {
		handlers.RespondError(w, h.logger, memorybank.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, record)
}

func (h *memoryHandler) searchViolations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, memorybank.ErrEmptyQuery)
		return
	}

	matches, err := h.memory.FindSimilarViolations(r.Context(), h.embedder.Embed(q), parseK(r))
	if err != nil {
		handlers.RespondError(w, h.logger, memorybank.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, matches)
}

func parseK(r *http.Request) int {
	if v := r.URL.Query().Get("k"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			return k
		}
	}
	return defaultSearchK
}
