// Package httpapi exposes the document and chat services over HTTP.
//
// The surface is deliberately thin: handlers decode and validate
// requests, call a driving port and encode the result. All pipeline
// behavior lives in the core services.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// maxUploadBytes caps an uploaded document at 32 MiB.
const maxUploadBytes = 32 << 20

// Config holds configuration for the HTTP server.
type Config struct {
	// Addr is the listen address (default: :8080).
	Addr string

	// RateLimitPerMinute is the fixed-window request budget per
	// client. Zero disables rate limiting.
	RateLimitPerMinute int
}

// Server serves the HTTP API.
type Server struct {
	rag      driving.RAGService
	docs     driving.DocumentService
	validate *validator.Validate
	server   *http.Server
}

// NewServer wires the driving services into an HTTP server. cache may
// be nil when rate limiting is disabled.
func NewServer(cfg Config, rag driving.RAGService, docs driving.DocumentService, cache driven.KVCache) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		rag:      rag,
		docs:     docs,
		validate: validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/chat/query", s.handleQuery)
	mux.HandleFunc("POST /api/chat/stream", s.handleStream)
	mux.HandleFunc("POST /api/documents", s.handleUpload)
	mux.HandleFunc("GET /api/documents", s.handleList)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDelete)

	var handler http.Handler = mux
	if cfg.RateLimitPerMinute > 0 && cache != nil {
		handler = rateLimit(cache, cfg.RateLimitPerMinute)(handler)
	}

	s.server = &http.Server{
		Addr:        cfg.Addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// no write timeout: SSE responses stay open
	}
	return s
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	logger.Info("http server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the configured handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryRequest is the body of both chat endpoints.
type queryRequest struct {
	Question    string `json:"question" validate:"required"`
	WorkspaceID string `json:"workspaceId" validate:"required"`
	ChatID      string `json:"chatId"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	answer, err := s.rag.Ask(r.Context(), driving.AskRequest{
		Question:    req.Question,
		WorkspaceID: req.WorkspaceID,
		ChatID:      req.ChatID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, err)
		return
	}

	answer, err := s.rag.AskStream(r.Context(), driving.AskRequest{
		Question:    req.Question,
		WorkspaceID: req.WorkspaceID,
		ChatID:      req.ChatID,
	}, driving.TokenSinkFunc(func(text string) error {
		return sse.Message(text)
	}))
	if err != nil {
		logger.Error("stream failed: %v", err)
		sse.Error(publicMessage(err))
		return
	}
	sse.Done(answer.Sources)
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (queryRequest, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput))
		return req, false
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return req, false
	}
	return req, true
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("%w: invalid multipart form", domain.ErrInvalidInput))
		return
	}

	workspaceID := r.FormValue("workspaceId")
	if workspaceID == "" {
		writeError(w, fmt.Errorf("%w: workspaceId is required", domain.ErrInvalidInput))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: file is required", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("reading upload: %w", err))
		return
	}

	doc, err := s.docs.Upload(r.Context(), driving.UploadRequest{
		WorkspaceID: workspaceID,
		Name:        header.Filename,
		MediaType:   header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentJSON(doc))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		writeError(w, fmt.Errorf("%w: workspaceId is required", domain.ErrInvalidInput))
		return
	}

	doc, err := s.docs.Get(r.Context(), workspaceID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentJSON(doc))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		writeError(w, fmt.Errorf("%w: workspaceId is required", domain.ErrInvalidInput))
		return
	}

	docs, err := s.docs.List(r.Context(), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(docs))
	for i := range docs {
		out = append(out, documentJSON(&docs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspaceId")
	if workspaceID == "" {
		writeError(w, fmt.Errorf("%w: workspaceId is required", domain.ErrInvalidInput))
		return
	}

	if err := s.docs.Delete(r.Context(), workspaceID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func documentJSON(doc *domain.Document) map[string]any {
	out := map[string]any{
		"id":          doc.ID,
		"workspaceId": doc.WorkspaceID,
		"name":        doc.Name,
		"mediaType":   doc.MediaType,
		"status":      string(doc.Status),
		"createdAt":   doc.CreatedAt,
		"updatedAt":   doc.UpdatedAt,
	}
	if doc.ErrorMessage != "" {
		out["errorMessage"] = doc.ErrorMessage
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("encoding response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": publicMessage(err)})
}

// publicMessage keeps internal detail out of client-facing errors.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	case errors.Is(err, domain.ErrAccessDenied):
		return "access denied"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate limited, try again later"
	default:
		return "internal error"
	}
}
