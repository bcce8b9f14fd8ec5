package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: this is separate from VectorIndex, which stores and searches
// vectors. EmbeddingService generates vectors; VectorIndex stores them.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Rate-limit responses surface as errors wrapping domain.ErrRateLimited.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector
	// per input in the same order. During ingestion a per-text failure
	// degrades to a zero vector rather than failing the whole batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768).
	// This must match the VectorIndex collection configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
