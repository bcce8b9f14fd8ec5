package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// sseWriter emits the streaming protocol: zero or more "message" events
// carrying answer tokens, then exactly one terminal event, either
// "done" with the sources or "error" with a reason.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// Message emits one answer token. An error means the client is gone.
func (s *sseWriter) Message(text string) error {
	return s.event("message", map[string]string{"token": text})
}

// Done emits the terminal success event with the answer's sources.
func (s *sseWriter) Done(sources []domain.Source) {
	if sources == nil {
		sources = []domain.Source{}
	}
	_ = s.event("done", map[string]any{"sources": sources})
}

// Error emits the terminal failure event.
func (s *sseWriter) Error(message string) {
	_ = s.event("error", map[string]string{"error": message})
}

func (s *sseWriter) event(name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
