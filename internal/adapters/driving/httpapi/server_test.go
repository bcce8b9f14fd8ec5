package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

type fakeRAG struct {
	answer    *domain.Answer
	err       error
	tokens    []string
	streamErr error
	lastReq   driving.AskRequest
}

func (f *fakeRAG) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	f.lastReq = req
	return f.answer, f.err
}

func (f *fakeRAG) AskStream(_ context.Context, req driving.AskRequest, sink driving.TokenSink) (*domain.Answer, error) {
	f.lastReq = req
	for _, tok := range f.tokens {
		if err := sink.Token(tok); err != nil {
			return nil, err
		}
	}
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.answer, nil
}

type fakeDocs struct {
	doc     *domain.Document
	docs    []domain.Document
	err     error
	lastReq driving.UploadRequest
	deleted []string
}

func (f *fakeDocs) Upload(_ context.Context, req driving.UploadRequest) (*domain.Document, error) {
	f.lastReq = req
	return f.doc, f.err
}

func (f *fakeDocs) Delete(_ context.Context, _, documentID string) error {
	f.deleted = append(f.deleted, documentID)
	return f.err
}

func (f *fakeDocs) Get(_ context.Context, _, _ string) (*domain.Document, error) {
	return f.doc, f.err
}

func (f *fakeDocs) List(_ context.Context, _ string) ([]domain.Document, error) {
	return f.docs, f.err
}

type fakeKV struct {
	counts  map[string]int64
	incrErr error
}

func (f *fakeKV) Get(context.Context, string) (string, error) { return "", domain.ErrNotFound }
func (f *fakeKV) Set(context.Context, string, string, time.Duration) error {
	return nil
}
func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], nil
}
func (f *fakeKV) Expire(context.Context, string, time.Duration) error { return nil }

func newTestServer(rag *fakeRAG, docs *fakeDocs) *Server {
	return NewServer(Config{}, rag, docs, nil)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeRAG{}, &fakeDocs{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestQuery(t *testing.T) {
	rag := &fakeRAG{answer: &domain.Answer{
		Answer:  "grounded answer",
		Sources: []domain.Source{{Index: 1, DocumentID: "doc-1", Score: 0.9}},
	}}
	srv := newTestServer(rag, &fakeDocs{})

	body := `{"question":"what is this?","workspaceId":"ws-1","chatId":"chat-1"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat/query", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grounded answer")
	assert.Equal(t, "ws-1", rag.lastReq.WorkspaceID)
	assert.Equal(t, "chat-1", rag.lastReq.ChatID)
}

func TestQuery_Validation(t *testing.T) {
	srv := newTestServer(&fakeRAG{}, &fakeDocs{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{`},
		{"missing question", `{"workspaceId":"ws-1"}`},
		{"missing workspace", `{"question":"hi"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat/query", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"rate limited", fmt.Errorf("wrapped: %w", domain.ErrRateLimited), http.StatusTooManyRequests},
		{"upstream", fmt.Errorf("wrapped: %w", domain.ErrUpstream), http.StatusBadGateway},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&fakeRAG{err: tc.err}, &fakeDocs{})
			body := `{"question":"q","workspaceId":"ws-1"}`
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat/query", strings.NewReader(body)))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestStream(t *testing.T) {
	rag := &fakeRAG{
		tokens: []string{"hello ", "world"},
		answer: &domain.Answer{
			Answer:  "hello world",
			Sources: []domain.Source{{Index: 1, DocumentID: "doc-1", Score: 0.8}},
		},
	}
	srv := newTestServer(rag, &fakeDocs{})

	body := `{"question":"q","workspaceId":"ws-1"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := rec.Body.String()
	assert.Contains(t, events, `event: message`)
	assert.Contains(t, events, `{"token":"hello "}`)
	assert.Contains(t, events, `{"token":"world"}`)
	assert.Contains(t, events, `event: done`)
	assert.Contains(t, events, `"documentId":"doc-1"`)
	assert.NotContains(t, events, "event: error")

	// done is terminal
	assert.Greater(t, strings.Index(events, "event: done"), strings.LastIndex(events, "event: message"))
}

func TestStream_ErrorEvent(t *testing.T) {
	rag := &fakeRAG{
		tokens:    []string{"partial"},
		streamErr: fmt.Errorf("wrapped: %w", domain.ErrUpstream),
	}
	srv := newTestServer(rag, &fakeDocs{})

	body := `{"question":"q","workspaceId":"ws-1"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body)))

	events := rec.Body.String()
	assert.Contains(t, events, `{"token":"partial"}`)
	assert.Contains(t, events, "event: error")
	assert.NotContains(t, events, "event: done")
}

func newUploadRequest(t *testing.T, workspaceID, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if workspaceID != "" {
		require.NoError(t, mw.WriteField("workspaceId", workspaceID))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	docs := &fakeDocs{doc: &domain.Document{
		ID:          "doc-1",
		WorkspaceID: "ws-1",
		Name:        "report.pdf",
		Status:      domain.StatusUploaded,
	}}
	srv := newTestServer(&fakeRAG{}, docs)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "ws-1", "report.pdf", []byte("%PDF-1.4")))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"UPLOADED"`)
	assert.Equal(t, "report.pdf", docs.lastReq.Name)
	assert.Equal(t, []byte("%PDF-1.4"), docs.lastReq.Content)
}

func TestUpload_Validation(t *testing.T) {
	srv := newTestServer(&fakeRAG{}, &fakeDocs{})

	t.Run("missing workspace", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, newUploadRequest(t, "", "report.pdf", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, newUploadRequest(t, "ws-1", "", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteDocument(t *testing.T) {
	docs := &fakeDocs{}
	srv := newTestServer(&fakeRAG{}, docs)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1?workspaceId=ws-1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"doc-1"}, docs.deleted)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	docs := &fakeDocs{err: fmt.Errorf("wrapped: %w", domain.ErrNotFound)}
	srv := newTestServer(&fakeRAG{}, docs)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1?workspaceId=ws-1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListDocuments(t *testing.T) {
	docs := &fakeDocs{docs: []domain.Document{
		{ID: "doc-1", Status: domain.StatusReady},
		{ID: "doc-2", Status: domain.StatusFailed, ErrorMessage: "extraction failed"},
	}}
	srv := newTestServer(&fakeRAG{}, docs)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents?workspaceId=ws-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"doc-1"`)
	assert.Contains(t, rec.Body.String(), "extraction failed")
}

func TestRateLimit(t *testing.T) {
	kv := &fakeKV{}
	srv := NewServer(Config{RateLimitPerMinute: 2}, &fakeRAG{}, &fakeDocs{}, kv)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		srv.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a different client has its own window
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_CacheDownBypasses(t *testing.T) {
	kv := &fakeKV{incrErr: fmt.Errorf("redis down")}
	srv := NewServer(Config{RateLimitPerMinute: 1}, &fakeRAG{}, &fakeDocs{}, kv)

	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
