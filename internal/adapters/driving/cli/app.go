package cli

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docqa/internal/adapters/driven/blob/s3"
	"github.com/custodia-labs/docqa/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/docqa/internal/adapters/driven/docstore/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/gemini"
	llmgemini "github.com/custodia-labs/docqa/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/docqa/internal/adapters/driven/queue/rabbitmq"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/docqa/internal/config"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// app holds the shared driven adapters both processes are built from.
type app struct {
	cfg      *config.Config
	store    *sqlite.Store
	blobs    *s3.BlobStore
	queue    *rabbitmq.JobQueue
	redis    *goredis.Client
	cache    *redis.KVCache
	memory   *redis.ChatMemory
	vectors  *qdrant.VectorIndex
	embedder driven.EmbeddingService
	llm      *llmgemini.LLMService
}

// newApp connects every backing service. Callers own the returned app
// and must Close it.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var err error
	if a.store, err = sqlite.NewStore(cfg.Store.DataDir); err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}

	if a.blobs, err = s3.NewBlobStore(ctx, s3.Config{
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		UseSSL:    cfg.Blob.UseSSL,
		Bucket:    cfg.Blob.Bucket,
	}); err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	if a.queue, err = rabbitmq.NewJobQueue(rabbitmq.Config{
		URL:       cfg.Queue.URL,
		QueueName: cfg.Queue.Name,
		Prefetch:  cfg.Worker.Prefetch,
	}); err != nil {
		return nil, fmt.Errorf("job queue: %w", err)
	}

	if a.redis, err = redis.NewClient(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.cache = redis.NewKVCache(a.redis)
	a.memory = redis.NewChatMemory(a.redis, config.DefaultMemoryWindow, config.DefaultMemoryTTL)

	if a.vectors, err = qdrant.NewVectorIndex(ctx, qdrant.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		Dimensions: cfg.Gemini.EmbeddingDims,
	}); err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}

	embedder, err := gemini.NewEmbeddingService(gemini.Config{
		APIKey:     cfg.Gemini.APIKey,
		BaseURL:    cfg.Gemini.BaseURL,
		Model:      cfg.Gemini.EmbeddingModel,
		Dimensions: cfg.Gemini.EmbeddingDims,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	a.embedder = cached.New(embedder, a.cache)

	if a.llm, err = llmgemini.NewLLMService(llmgemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.GenerationModel,
	}); err != nil {
		return nil, fmt.Errorf("llm service: %w", err)
	}

	ok = true
	return a, nil
}

// Close releases every connected adapter. Safe on a partially built app.
func (a *app) Close() {
	if a.vectors != nil {
		if err := a.vectors.Close(); err != nil {
			logger.Warn("closing vector index: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("closing redis: %v", err)
		}
	}
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			logger.Warn("closing queue: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn("closing document store: %v", err)
		}
	}
}

// shutdownTimeout bounds graceful drain on exit.
const shutdownTimeout = 15 * time.Second
