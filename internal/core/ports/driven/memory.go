package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ChatMemory stores the most recent conversation turns per chat session.
// The store keeps a bounded window (last N messages) and refreshes the
// session TTL on every append.
type ChatMemory interface {
	// Append adds a message to the session's history, trimming to the
	// configured window and refreshing the TTL.
	Append(ctx context.Context, chatID string, msg domain.ChatMessage) error

	// History returns the session's messages, oldest first.
	// An expired or unknown session returns an empty slice.
	History(ctx context.Context, chatID string) ([]domain.ChatMessage, error)
}
