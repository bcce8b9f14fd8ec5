package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentStore persists document metadata rows.
// Rows are keyed by opaque id and scoped to a workspace.
type DocumentStore interface {
	// Create inserts a new document row.
	Create(ctx context.Context, doc domain.Document) error

	// Get retrieves a document by id.
	// Returns domain.ErrNotFound if no row exists.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// UpdateStatus transitions a document's lifecycle state.
	// errorMessage is stored alongside FAILED transitions and cleared
	// otherwise.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errorMessage string) error

	// Delete removes a document row.
	Delete(ctx context.Context, id string) error

	// ListByWorkspace returns all documents in a workspace, newest first.
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Document, error)

	// Close releases resources.
	Close() error
}
