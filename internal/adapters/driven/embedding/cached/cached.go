// Package cached provides a content-addressed cache decorator around an
// embedding service, avoiding repeated provider calls for identical text.
package cached

import (
	"context"
	"crypto/md5" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	// DefaultTTL is the cache expiry. Embedding is a pure function of
	// its input, so entries are never invalidated, only expired.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultBatchInterval is the pacing between per-chunk provider
	// calls during batch embedding, to respect provider rate limits.
	DefaultBatchInterval = 100 * time.Millisecond
)

// EmbeddingService caches embeddings by a content hash of the input
// text. The cache is best-effort: if the cache store is unreachable the
// call falls through to the inner provider transparently.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	cache   driven.KVCache
	ttl     time.Duration
	limiter *rate.Limiter
}

// Option configures the cached embedding service.
type Option func(*EmbeddingService)

// WithTTL sets the cache entry expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *EmbeddingService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBatchInterval sets the pacing between batch provider calls.
func WithBatchInterval(interval time.Duration) Option {
	return func(s *EmbeddingService) {
		if interval > 0 {
			s.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// New wraps inner with a content-addressed cache.
func New(inner driven.EmbeddingService, cache driven.KVCache, opts ...Option) *EmbeddingService {
	s := &EmbeddingService{
		inner:   inner,
		cache:   cache,
		ttl:     DefaultTTL,
		limiter: rate.NewLimiter(rate.Every(DefaultBatchInterval), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed returns the cached vector for text, or calls the inner provider
// and stores the result.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err == nil {
			logger.Debug("embedding cache hit")
			return vec, nil
		}
		logger.Warn("corrupt cached embedding for %s, re-embedding", key)
	}

	logger.Debug("embedding cache miss, calling provider")
	// pacing applies to provider calls only; cache hits are free
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vec, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
			logger.Warn("store embedding in cache: %v", err)
		}
	}

	return vec, nil
}

// EmbedBatch embeds each text through the cache. Provider calls are
// paced by Embed; fully cached batches complete without waiting. A
// per-text failure degrades to a zero vector so one bad chunk does not
// abort a whole document's ingestion.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("embed chunk %d degraded to zero vector: %v", i, err)
			vec = make([]float32, s.inner.Dimensions())
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// cacheKey addresses an embedding by the content hash of the exact
// input text.
func cacheKey(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // content addressing, not security
	return fmt.Sprintf("embedding:%s", hex.EncodeToString(sum[:]))
}
