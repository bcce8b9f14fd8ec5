package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/chunker"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService consumes ingestion jobs and runs the extraction,
// chunking, embedding and indexing pipeline for each. Concurrency is
// bounded by the queue consumer's prefetch; each job is independent and
// a failed job never blocks the others.
type IngestionService struct {
	docs      driven.DocumentStore
	blobs     driven.BlobStore
	queue     driven.JobQueue
	vectors   driven.VectorIndex
	embedder  driven.EmbeddingService
	extractor driven.TextExtractor
	chunks    *chunker.Chunker
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	docs driven.DocumentStore,
	blobs driven.BlobStore,
	queue driven.JobQueue,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	extractor driven.TextExtractor,
	chunks *chunker.Chunker,
) *IngestionService {
	return &IngestionService{
		docs:      docs,
		blobs:     blobs,
		queue:     queue,
		vectors:   vectors,
		embedder:  embedder,
		extractor: extractor,
		chunks:    chunks,
	}
}

// Run consumes jobs until ctx is cancelled.
func (s *IngestionService) Run(ctx context.Context) error {
	logger.Info("ingestion worker started")
	return s.queue.Consume(ctx, s.Process)
}

// Process runs the pipeline for one job: PROCESSING, extract, chunk,
// embed, upsert, READY. Any stage failure writes FAILED and returns the
// error so the queue drops the job without requeue. Delivery is
// at-least-once, so the document's previous points are purged before
// upserting fresh ones; a redelivered job converges to READY with no
// mixed-version vector set.
func (s *IngestionService) Process(ctx context.Context, job domain.IngestionJob) error {
	logger.Info("processing document %s", job.DocumentID)

	if err := s.docs.UpdateStatus(ctx, job.DocumentID, domain.StatusProcessing, ""); err != nil {
		return s.fail(ctx, job, fmt.Errorf("mark processing: %w", err))
	}

	blob, err := s.blobs.Get(ctx, job.Bucket, job.BlobKey)
	if err != nil {
		return s.fail(ctx, job, fmt.Errorf("read blob %s/%s: %w", job.Bucket, job.BlobKey, err))
	}

	text, err := s.extractor.Extract(blob, job.BlobKey)
	if err != nil {
		return s.fail(ctx, job, fmt.Errorf("extract text: %w", err))
	}

	chunks := s.chunks.Chunk(text)

	// Purge any points from a previous delivery of this document. This
	// runs even when the new content produced no chunks, so the index
	// never keeps vectors for text the document no longer has.
	if res := s.vectors.DeleteByDocument(ctx, job.DocumentID); res.Err != nil {
		return s.fail(ctx, job, fmt.Errorf("purge stale points: %w", res.Err))
	}

	if len(chunks) > 0 {
		vectors, err := s.embedder.EmbedBatch(ctx, chunks)
		if err != nil {
			return s.fail(ctx, job, fmt.Errorf("embed chunks: %w", err))
		}

		points := make([]driven.Point, len(chunks))
		for i, chunk := range chunks {
			points[i] = driven.Point{
				ID:          uuid.NewString(),
				Vector:      vectors[i],
				DocumentID:  job.DocumentID,
				WorkspaceID: job.WorkspaceID,
				ChunkIndex:  i,
				Text:        chunk,
			}
		}
		if err := s.vectors.Upsert(ctx, points); err != nil {
			return s.fail(ctx, job, fmt.Errorf("upsert points: %w", err))
		}
	}

	if err := s.docs.UpdateStatus(ctx, job.DocumentID, domain.StatusReady, ""); err != nil {
		return s.fail(ctx, job, fmt.Errorf("mark ready: %w", err))
	}

	logger.Info("document ready: %s (%d chunks)", job.DocumentID, len(chunks))
	return nil
}

// fail records the FAILED status and returns the original error so the
// consumer nacks the job without requeue.
func (s *IngestionService) fail(ctx context.Context, job domain.IngestionJob, cause error) error {
	logger.Error("document %s failed: %v", job.DocumentID, cause)
	if err := s.docs.UpdateStatus(ctx, job.DocumentID, domain.StatusFailed, cause.Error()); err != nil {
		logger.Error("record failure for %s: %v", job.DocumentID, err)
	}
	return cause
}
