// Package domain defines the core business entities for the document
// QA service.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: an uploaded document and its ingestion lifecycle
//   - IngestionJob: the unit of work carried on the durable queue
//   - SearchHit: a retrieved passage with its similarity score
//   - Answer: a generated answer with its enumerated sources
//   - ChatMessage: one turn of conversation memory
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
