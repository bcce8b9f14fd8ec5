package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// JobHandler processes one delivered ingestion job. A nil return
// acknowledges the job; a non-nil return negatively acknowledges it
// without requeue (poison jobs are dropped, not retried indefinitely).
type JobHandler func(ctx context.Context, job domain.IngestionJob) error

// JobQueue is a durable, at-least-once work queue for ingestion jobs.
type JobQueue interface {
	// Enqueue publishes a job with persistent delivery.
	Enqueue(ctx context.Context, job domain.IngestionJob) error

	// Consume delivers jobs to handler until ctx is cancelled. The
	// consumer holds at most its configured prefetch of unacknowledged
	// jobs at once; each delivery is handled independently.
	Consume(ctx context.Context, handler JobHandler) error

	// Close releases the queue connection.
	Close() error
}
