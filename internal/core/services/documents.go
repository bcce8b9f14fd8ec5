package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService handles the upload and delete paths around the
// ingestion pipeline.
type DocumentService struct {
	docs    driven.DocumentStore
	blobs   driven.BlobStore
	queue   driven.JobQueue
	vectors driven.VectorIndex
	bucket  string

	// now is replaceable in tests.
	now func() time.Time
}

// NewDocumentService creates a document service writing blobs to the
// given bucket.
func NewDocumentService(
	docs driven.DocumentStore,
	blobs driven.BlobStore,
	queue driven.JobQueue,
	vectors driven.VectorIndex,
	bucket string,
) *DocumentService {
	return &DocumentService{
		docs:    docs,
		blobs:   blobs,
		queue:   queue,
		vectors: vectors,
		bucket:  bucket,
		now:     time.Now,
	}
}

// Upload stores the blob, creates the document row as UPLOADED and
// enqueues an ingestion job.
func (s *DocumentService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.Document, error) {
	if req.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceId is required", domain.ErrInvalidInput)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%w: file content is empty", domain.ErrInvalidInput)
	}

	key := fmt.Sprintf("documents/%s/%s-%s", req.WorkspaceID, uuid.NewString(), req.Name)
	if err := s.blobs.Put(ctx, s.bucket, key, req.Content, req.MediaType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	now := s.now()
	doc := domain.Document{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		MediaType:   req.MediaType,
		Status:      domain.StatusUploaded,
		BlobBucket:  s.bucket,
		BlobKey:     key,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	job := domain.IngestionJob{
		DocumentID:  doc.ID,
		WorkspaceID: doc.WorkspaceID,
		Bucket:      doc.BlobBucket,
		BlobKey:     doc.BlobKey,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue ingestion job: %w", err)
	}

	logger.Info("document %s uploaded and queued", doc.ID)
	return &doc, nil
}

// Delete removes the document's vectors (best-effort), its blob and its
// row. The vector purge is a compensating cleanup: its failure is
// logged and the relational delete still proceeds.
func (s *DocumentService) Delete(ctx context.Context, workspaceID, documentID string) error {
	doc, err := s.get(ctx, workspaceID, documentID)
	if err != nil {
		return err
	}

	if res := s.vectors.DeleteByDocument(ctx, documentID); res.Err != nil {
		logger.Warn("vector cleanup for %s incomplete after %d deletions: %v", documentID, res.Deleted, res.Err)
	} else {
		logger.Debug("purged %d points for document %s", res.Deleted, documentID)
	}

	if doc.BlobKey != "" {
		if err := s.blobs.Delete(ctx, doc.BlobBucket, doc.BlobKey); err != nil {
			logger.Warn("blob cleanup for %s: %v", documentID, err)
		}
	}

	if err := s.docs.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Info("document %s deleted", documentID)
	return nil
}

// Get returns a single document, checking workspace ownership.
func (s *DocumentService) Get(ctx context.Context, workspaceID, documentID string) (*domain.Document, error) {
	return s.get(ctx, workspaceID, documentID)
}

// List returns a workspace's documents, newest first.
func (s *DocumentService) List(ctx context.Context, workspaceID string) ([]domain.Document, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspaceId is required", domain.ErrInvalidInput)
	}
	return s.docs.ListByWorkspace(ctx, workspaceID)
}

// get fetches a document and hides documents from other workspaces
// behind ErrNotFound.
func (s *DocumentService) get(ctx context.Context, workspaceID, documentID string) (*domain.Document, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.WorkspaceID != workspaceID {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	return doc, nil
}
