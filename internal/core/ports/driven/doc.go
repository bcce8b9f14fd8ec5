// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them. Every collaborator is injected through a constructor;
// there are no ambient process-wide singletons, so each service can be
// tested in isolation with fakes.
//
// # Interfaces
//
//   - DocumentStore: document metadata persistence
//   - BlobStore: raw document bytes (S3-compatible)
//   - JobQueue: durable at-least-once ingestion queue
//   - KVCache: content-addressed caching and counters
//   - ChatMemory: bounded recent-turn conversation history
//   - VectorIndex: passage vector storage and similarity search
//   - EmbeddingService: text to fixed-dimension vectors
//   - LLMService: answer generation, whole and token-streamed
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
