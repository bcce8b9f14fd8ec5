package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// UploadRequest carries a new document into the system.
type UploadRequest struct {
	WorkspaceID string
	Name        string
	MediaType   string
	Content     []byte
}

// DocumentService handles the upload and delete paths around the
// ingestion pipeline.
type DocumentService interface {
	// Upload stores the blob, creates the document row as UPLOADED and
	// enqueues an ingestion job.
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)

	// Delete removes the document's vectors (best-effort), its blob and
	// its row. Returns domain.ErrNotFound for an unknown id.
	Delete(ctx context.Context, workspaceID, documentID string) error

	// Get returns a single document, checking workspace ownership.
	Get(ctx context.Context, workspaceID, documentID string) (*domain.Document, error)

	// List returns a workspace's documents, newest first.
	List(ctx context.Context, workspaceID string) ([]domain.Document, error)
}

// IngestionService consumes ingestion jobs and runs the extraction,
// chunking, embedding and indexing pipeline for each.
type IngestionService interface {
	// Run consumes jobs until ctx is cancelled.
	Run(ctx context.Context) error

	// Process runs the pipeline for one job. Safe to re-run for the
	// same document (at-least-once delivery).
	Process(ctx context.Context, job domain.IngestionJob) error
}
