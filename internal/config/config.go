// Package config loads the docqa service configuration from a TOML
// file with environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Default configuration values.
const (
	DefaultAddr             = ":8080"
	DefaultPrefetch         = 3
	DefaultQueueName        = "document-ingestion"
	DefaultCollection       = "documents"
	DefaultTopK             = 5
	DefaultChunkSize        = 500
	DefaultChunkOverlap     = 50
	DefaultEmbeddingModel   = "text-embedding-004"
	DefaultGenerationModel  = "gemini-2.0-flash"
	DefaultEmbeddingDims    = 768
	DefaultAnswerCacheTTL   = 5 * time.Minute
	DefaultEmbedCacheTTL    = 7 * 24 * time.Hour
	DefaultMemoryWindow     = 10
	DefaultMemoryTTL        = 30 * time.Minute
	DefaultRateLimitPerMin  = 60
	DefaultQdrantPort       = 6334
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Worker WorkerConfig `toml:"worker"`
	Store  StoreConfig  `toml:"store"`
	Blob   BlobConfig   `toml:"blob"`
	Queue  QueueConfig  `toml:"queue"`
	Redis  RedisConfig  `toml:"redis"`
	Qdrant QdrantConfig `toml:"qdrant"`
	Gemini GeminiConfig `toml:"gemini"`
	RAG    RAGConfig    `toml:"rag"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`

	// RateLimitPerMinute is the fixed-window request budget per client.
	// Zero disables rate limiting.
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// WorkerConfig configures the ingestion worker.
type WorkerConfig struct {
	// Prefetch bounds concurrent in-flight jobs on the consumer.
	Prefetch int `toml:"prefetch"`

	// ChunkSize and ChunkOverlap configure the text chunker.
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

// StoreConfig configures the document metadata store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database. Empty
	// means ./data.
	DataDir string `toml:"data_dir"`
}

// BlobConfig configures the S3-compatible blob store.
type BlobConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// QueueConfig configures the ingestion queue.
type QueueConfig struct {
	// URL is the AMQP connection string.
	URL string `toml:"url"`

	// Name is the queue name.
	Name string `toml:"name"`
}

// RedisConfig configures the cache and chat memory store.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// QdrantConfig configures the vector index.
type QdrantConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
}

// GeminiConfig configures the embedding and generation models.
type GeminiConfig struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	EmbeddingModel  string `toml:"embedding_model"`
	GenerationModel string `toml:"generation_model"`
	EmbeddingDims   int    `toml:"embedding_dims"`
}

// RAGConfig configures the query pipeline.
type RAGConfig struct {
	// TopK is the number of passages retrieved per question.
	TopK int `toml:"top_k"`

	// Grounding selects the prompt policy for this deployment.
	Grounding string `toml:"grounding"`
}

// Load reads the configuration file at path, fills defaults and applies
// environment overrides. A missing file is not an error; the defaults
// plus environment are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = DefaultRateLimitPerMin
	}
	if c.Worker.Prefetch <= 0 {
		c.Worker.Prefetch = DefaultPrefetch
	}
	if c.Worker.ChunkSize <= 0 {
		c.Worker.ChunkSize = DefaultChunkSize
	}
	if c.Worker.ChunkOverlap <= 0 {
		c.Worker.ChunkOverlap = DefaultChunkOverlap
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	if c.Queue.Name == "" {
		c.Queue.Name = DefaultQueueName
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Qdrant.Host == "" {
		c.Qdrant.Host = "localhost"
	}
	if c.Qdrant.Port == 0 {
		c.Qdrant.Port = DefaultQdrantPort
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = DefaultCollection
	}
	if c.Gemini.EmbeddingModel == "" {
		c.Gemini.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.Gemini.GenerationModel == "" {
		c.Gemini.GenerationModel = DefaultGenerationModel
	}
	if c.Gemini.EmbeddingDims == 0 {
		c.Gemini.EmbeddingDims = DefaultEmbeddingDims
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = DefaultTopK
	}
	if c.RAG.Grounding == "" {
		c.RAG.Grounding = string(domain.GroundingStrict)
	}
}

// applyEnv overlays secrets and connection strings from the
// environment. Environment always wins over the file.
func (c *Config) applyEnv() {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	overlay(&c.Gemini.APIKey, "GEMINI_API_KEY")
	overlay(&c.Queue.URL, "RABBITMQ_URL")
	overlay(&c.Redis.Addr, "REDIS_ADDR")
	overlay(&c.Redis.Username, "REDIS_USERNAME")
	overlay(&c.Redis.Password, "REDIS_PASSWORD")
	overlay(&c.Blob.Endpoint, "S3_ENDPOINT")
	overlay(&c.Blob.AccessKey, "S3_ACCESS_KEY")
	overlay(&c.Blob.SecretKey, "S3_SECRET_KEY")
	overlay(&c.Blob.Bucket, "S3_BUCKET")
	overlay(&c.Qdrant.Host, "QDRANT_HOST")
	overlay(&c.Qdrant.APIKey, "QDRANT_API_KEY")
}

func (c *Config) validate() error {
	if !domain.GroundingMode(c.RAG.Grounding).Valid() {
		return fmt.Errorf("%w: unknown grounding mode %q", domain.ErrInvalidInput, c.RAG.Grounding)
	}
	if c.Worker.ChunkOverlap >= c.Worker.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, c.Worker.ChunkOverlap, c.Worker.ChunkSize)
	}
	return nil
}

// GroundingMode returns the configured prompt policy.
func (c *Config) GroundingMode() domain.GroundingMode {
	return domain.GroundingMode(c.RAG.Grounding)
}
