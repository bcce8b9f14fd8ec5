// Package redis provides Redis-backed implementations of the key-value
// cache and the chat memory.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure implementations satisfy the interfaces.
var (
	_ driven.KVCache    = (*KVCache)(nil)
	_ driven.ChatMemory = (*ChatMemory)(nil)
)

// Default configuration values.
const (
	DefaultAddr = "localhost:6379"

	DefaultMemoryWindow = 10
	DefaultMemoryTTL    = 30 * time.Minute
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the host:port of the Redis server (default: localhost:6379).
	Addr string

	// Username and Password authenticate the connection, if set.
	Username string
	Password string

	// DB selects the logical database.
	DB int
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// KVCache is a Redis-backed key-value cache.
type KVCache struct {
	client *redis.Client
}

// NewKVCache wraps a Redis client as a key-value cache.
func NewKVCache(client *redis.Client) *KVCache {
	return &KVCache{client: client}
}

// Get retrieves a value. A missing key maps to domain.ErrNotFound.
func (c *KVCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: cache key %q", domain.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("cache get: %w", err)
	}
	return val, nil
}

// Set stores a value with a TTL.
func (c *KVCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Incr atomically increments a counter, creating it at 1.
func (c *KVCache) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache incr: %w", err)
	}
	return n, nil
}

// Expire sets a key's TTL.
func (c *KVCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire: %w", err)
	}
	return nil
}

// ChatMemory keeps per-session conversation history in a Redis list,
// trimmed to a fixed window with a sliding TTL.
type ChatMemory struct {
	client *redis.Client
	window int
	ttl    time.Duration
}

// NewChatMemory wraps a Redis client as chat memory. Non-positive
// window or TTL fall back to the defaults.
func NewChatMemory(client *redis.Client, window int, ttl time.Duration) *ChatMemory {
	if window <= 0 {
		window = DefaultMemoryWindow
	}
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}
	return &ChatMemory{client: client, window: window, ttl: ttl}
}

func memoryKey(chatID string) string {
	return "chat:" + chatID
}

// Append adds a message, trims the list to the window and refreshes the
// session TTL. The three commands run in one pipeline round trip.
func (m *ChatMemory) Append(ctx context.Context, chatID string, msg domain.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := memoryKey(chatID)
	pipe := m.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-m.window), -1)
	pipe.Expire(ctx, key, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// History returns the session's messages, oldest first.
func (m *ChatMemory) History(ctx context.Context, chatID string) ([]domain.ChatMessage, error) {
	raw, err := m.client.LRange(ctx, memoryKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat history: %w", err)
	}

	messages := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
