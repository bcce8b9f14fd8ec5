package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskRequest is a question posed against a workspace's documents.
type AskRequest struct {
	// Question is the natural-language question. Required.
	Question string

	// WorkspaceID scopes retrieval to one workspace. Required.
	WorkspaceID string

	// ChatID, when set, threads the question into a conversation whose
	// recent turns are included in the prompt and updated afterwards.
	ChatID string
}

// TokenSink receives streamed answer tokens in generation order.
// A non-nil error from Token signals the consumer is gone (e.g. the
// client disconnected); the producer stops forwarding.
type TokenSink interface {
	Token(text string) error
}

// TokenSinkFunc adapts a function to the TokenSink interface.
type TokenSinkFunc func(text string) error

// Token implements TokenSink.
func (f TokenSinkFunc) Token(text string) error { return f(text) }

// RAGService answers questions grounded in a workspace's documents.
type RAGService interface {
	// Ask runs the full retrieval-augmented pipeline and returns the
	// complete answer with enumerated sources.
	Ask(ctx context.Context, req AskRequest) (*domain.Answer, error)

	// AskStream runs the same pipeline but forwards tokens to sink as
	// they arrive. On success the final answer has been accumulated,
	// memory and cache side effects have run exactly once, and the
	// returned answer matches the concatenation of forwarded tokens.
	// A mid-stream failure returns an error; the caller signals the
	// consumer with a terminal error event distinct from completion.
	AskStream(ctx context.Context, req AskRequest, sink TokenSink) (*domain.Answer, error)
}
