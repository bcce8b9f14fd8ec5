package driven

import "context"

// BlobStore provides access to raw document bytes in an object store.
// The store's internal mechanics are opaque to the core.
type BlobStore interface {
	// Get downloads an object's full contents.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put uploads an object and returns nothing; the caller chooses the key.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error
}
