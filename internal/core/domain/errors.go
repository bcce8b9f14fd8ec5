package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or missing input.
	// Requests failing this check are rejected before any side effect.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccessDenied indicates the caller lacks workspace membership.
	ErrAccessDenied = errors.New("access denied")

	// ErrExtraction indicates a document's content could not be parsed.
	// The ingestion worker converts this into a FAILED status rather
	// than crashing the pipeline.
	ErrExtraction = errors.New("extraction failed")

	// ErrRateLimited indicates an upstream provider throttled the call.
	// The retry policy retries these; all other upstream failures
	// propagate immediately.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstream indicates a non-rate-limit provider failure.
	ErrUpstream = errors.New("upstream unavailable")
)
