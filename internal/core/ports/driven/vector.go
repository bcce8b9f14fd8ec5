package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Point is one stored vector plus its retrievable payload. The vector
// index is the sole store of passage text for RAG purposes.
type Point struct {
	// ID is a fresh random identity, never reused across ingestions.
	ID string

	// Vector is the passage embedding, dimension fixed by the model.
	Vector []float32

	// Payload fields.
	DocumentID  string
	WorkspaceID string
	ChunkIndex  int
	Text        string
}

// PurgeResult reports a best-effort vector cleanup. A failed purge is a
// soft failure: Err is recorded for logging but the caller proceeds.
type PurgeResult struct {
	// Deleted is the number of points removed.
	Deleted int

	// Err is the failure that stopped the purge, if any.
	Err error
}

// VectorIndex provides workspace-scoped similarity search over
// passage embeddings.
type VectorIndex interface {
	// Upsert inserts or replaces points by id.
	Upsert(ctx context.Context, points []Point) error

	// Search returns the top-limit passages for the query vector,
	// strictly filtered to the given workspace and ordered by
	// descending similarity score.
	Search(ctx context.Context, vector []float32, workspaceID string, limit int) ([]domain.SearchHit, error)

	// DeleteByDocument removes every point whose payload documentId
	// matches. Zero matching points is a successful no-op. Failures are
	// reported in the result, never raised.
	DeleteByDocument(ctx context.Context, documentID string) PurgeResult

	// Close releases resources.
	Close() error
}
