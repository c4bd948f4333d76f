package audits_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/compliance-sentinel/sentinel/internal/audits"
	"github.com/compliance-sentinel/sentinel/internal/jobs"
	"github.com/compliance-sentinel/sentinel/pkg/pagination"
)

type mockSystem struct {
	listFn           func(ctx context.Context, page pagination.PageRequest, filters audits.Filters) (*pagination.PageResult[audits.Audit], error)
	findFn           func(ctx context.Context, id uuid.UUID) (*audits.Audit, error)
	findByDocumentFn func(ctx context.Context, documentID uuid.UUID) ([]audits.Audit, error)
	bundleFn         func(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
	submitFn         func(ctx context.Context, cmd audits.SubmitCommand) (*audits.Receipt, error)
	deleteFn         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler() *audits.Handler {
	return audits.NewHandler(
		m,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters audits.Filters) (*pagination.PageResult[audits.Audit], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*audits.Audit, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]audits.Audit, error) {
	return m.findByDocumentFn(ctx, documentID)
}

func (m *mockSystem) Bundle(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	return m.bundleFn(ctx, id)
}

func (m *mockSystem) Submit(ctx context.Context, cmd audits.SubmitCommand) (*audits.Receipt, error) {
	return m.submitFn(ctx, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) PruneBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (m *mockSystem) Checkpoint(_ context.Context, _ *jobs.Job) error {
	return nil
}

func setupMux(h *audits.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleAudit(t *testing.T) audits.Audit {
	t.Helper()

	job := jobs.New(
		uuid.MustParse("650e8400-e29b-41d4-a716-446655440001"),
		jobs.ChunkText("This agreement covers services.\n\nEither party may terminate."),
	)
	snapshot, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}

	return audits.Audit{
		ID:         job.ID,
		DocumentID: job.DocumentID,
		Status:     job.Status,
		Snapshot:   snapshot,
		CreatedAt:  time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	audit := sampleAudit(t)
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, _ audits.Filters) (*pagination.PageResult[audits.Audit], error) {
			result := pagination.NewPageResult([]audits.Audit{audit}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(sys.Handler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/audits", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[audits.Audit]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("total = %d, want 1", result.Total)
	}
	if len(result.Data) != 1 || result.Data[0].ID != audit.ID {
		t.Errorf("data = %v, want single audit %v", result.Data, audit.ID)
	}
}

func TestHandlerFind(t *testing.T) {
	audit := sampleAudit(t)

	t.Run("returns audit by id", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*audits.Audit, error) {
				if id != audit.ID {
					return nil, audits.ErrNotFound
				}
				return &audit, nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/audits/"+audit.ID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got audits.Audit
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != audit.ID {
			t.Errorf("id = %v, want %v", got.ID, audit.ID)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		mux := setupMux((&mockSystem{}).Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/audits/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*audits.Audit, error) {
				return nil, audits.ErrNotFound
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/audits/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerJob(t *testing.T) {
	audit := sampleAudit(t)

	t.Run("returns checkpointed job", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*audits.Audit, error) {
				return &audit, nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/audits/"+audit.ID.String()+"/job", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var job jobs.Job
		if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if job.ID != audit.ID {
			t.Errorf("job id = %v, want %v", job.ID, audit.ID)
		}
		if len(job.Chunks) != 2 {
			t.Errorf("chunk count = %d, want 2", len(job.Chunks))
		}
	})

	t.Run("malformed snapshot returns 500", func(t *testing.T) {
		broken := audit
		broken.Snapshot = json.RawMessage(`{`)
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*audits.Audit, error) {
				return &broken, nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/audits/"+audit.ID.String()+"/job", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestHandlerBundle(t *testing.T) {
	audit := sampleAudit(t)

	t.Run("streams archived bundle", func(t *testing.T) {
		sys := &mockSystem{
			bundleFn: func(_ context.Context, id uuid.UUID) (io.ReadCloser, error) {
				if id != audit.ID {
					return nil, audits.ErrNoBundle
				}
				return io.NopCloser(bytes.NewReader(audit.Snapshot)), nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/audits/"+audit.ID.String()+"/bundle", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q, want application/json", got)
		}

		var job jobs.Job
		if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if job.ID != audit.ID {
			t.Errorf("job id = %v, want %v", job.ID, audit.ID)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		mux := setupMux((&mockSystem{}).Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/audits/not-a-uuid/bundle", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing bundle returns 404", func(t *testing.T) {
		sys := &mockSystem{
			bundleFn: func(_ context.Context, _ uuid.UUID) (io.ReadCloser, error) {
				return nil, audits.ErrNoBundle
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/audits/"+uuid.New().String()+"/bundle", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerFindByDocument(t *testing.T) {
	audit := sampleAudit(t)
	sys := &mockSystem{
		findByDocumentFn: func(_ context.Context, documentID uuid.UUID) ([]audits.Audit, error) {
			if documentID != audit.DocumentID {
				return []audits.Audit{}, nil
			}
			return []audits.Audit{audit}, nil
		},
	}
	mux := setupMux(sys.Handler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/audits/document/"+audit.DocumentID.String(), nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []audits.Audit
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != audit.ID {
		t.Errorf("audits = %v, want single audit %v", got, audit.ID)
	}
}

func TestHandlerSubmit(t *testing.T) {
	documentID := uuid.MustParse("650e8400-e29b-41d4-a716-446655440001")

	t.Run("accepts submission", func(t *testing.T) {
		var capturedCmd audits.SubmitCommand
		sys := &mockSystem{
			submitFn: func(_ context.Context, cmd audits.SubmitCommand) (*audits.Receipt, error) {
				capturedCmd = cmd
				return &audits.Receipt{
					JobID:      uuid.New(),
					DocumentID: cmd.DocumentID,
					Status:     jobs.StatusReceived,
				}, nil
			},
		}
		mux := setupMux(sys.Handler())

		body, _ := json.Marshal(audits.SubmitCommand{DocumentID: documentID})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/audits", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
		if capturedCmd.DocumentID != documentID {
			t.Errorf("document id = %v, want %v", capturedCmd.DocumentID, documentID)
		}

		var receipt audits.Receipt
		if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if receipt.DocumentID != documentID {
			t.Errorf("receipt document id = %v, want %v", receipt.DocumentID, documentID)
		}
		if receipt.Status != jobs.StatusReceived {
			t.Errorf("receipt status = %v, want %v", receipt.Status, jobs.StatusReceived)
		}
	})

	t.Run("missing document id returns 400", func(t *testing.T) {
		mux := setupMux((&mockSystem{}).Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/audits", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		mux := setupMux((&mockSystem{}).Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/audits", bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("document not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			submitFn: func(_ context.Context, _ audits.SubmitCommand) (*audits.Receipt, error) {
				return nil, audits.ErrNotFound
			},
		}
		mux := setupMux(sys.Handler())

		body, _ := json.Marshal(audits.SubmitCommand{DocumentID: documentID})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/audits", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerSearch(t *testing.T) {
	audit := sampleAudit(t)

	var capturedPage pagination.PageRequest
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, _ audits.Filters) (*pagination.PageResult[audits.Audit], error) {
			capturedPage = page
			result := pagination.NewPageResult([]audits.Audit{audit}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(sys.Handler())

	body, _ := json.Marshal(audits.SearchRequest{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/audits/search", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if capturedPage.Page != 1 {
		t.Errorf("page = %d, want 1 (normalized)", capturedPage.Page)
	}
	if capturedPage.PageSize != 20 {
		t.Errorf("page_size = %d, want 20 (default)", capturedPage.PageSize)
	}
}

func TestHandlerDelete(t *testing.T) {
	auditID := uuid.New()

	t.Run("deletes audit", func(t *testing.T) {
		var capturedID uuid.UUID
		sys := &mockSystem{
			deleteFn: func(_ context.Context, id uuid.UUID) error {
				capturedID = id
				return nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/audits/"+auditID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if capturedID != auditID {
			t.Errorf("id = %v, want %v", capturedID, auditID)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			deleteFn: func(_ context.Context, _ uuid.UUID) error {
				return audits.ErrNotFound
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/audits/"+auditID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerRoutes(t *testing.T) {
	group := (&mockSystem{}).Handler().Routes()

	if group.Prefix != "/audits" {
		t.Errorf("prefix = %q, want /audits", group.Prefix)
	}

	want := []struct {
		method  string
		pattern string
	}{
		{"GET", ""},
		{"GET", "/{id}"},
		{"GET", "/{id}/job"},
		{"GET", "/{id}/bundle"},
		{"GET", "/document/{documentId}"},
		{"POST", ""},
		{"POST", "/search"},
		{"DELETE", "/{id}"},
	}

	if len(group.Routes) != len(want) {
		t.Fatalf("route count = %d, want %d", len(group.Routes), len(want))
	}

	for i, w := range want {
		r := group.Routes[i]
		if r.Method != w.method || r.Pattern != w.pattern {
			t.Errorf("route[%d] = %s %s, want %s %s", i, r.Method, r.Pattern, w.method, w.pattern)
		}
	}
}
