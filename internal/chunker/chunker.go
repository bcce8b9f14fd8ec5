// Package chunker splits extracted text into overlapping fixed-size
// windows, the unit of embedding and retrieval.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DefaultSize is the default number of characters per chunk.
const DefaultSize = 500

// DefaultOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultOverlap = 50

// Chunker produces overlapping fixed-size windows over text.
type Chunker struct {
	size    int
	overlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithSize sets the chunk size in characters.
func WithSize(size int) Option {
	return func(c *Chunker) {
		c.size = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker with the given options. The configuration is
// rejected unless 0 <= overlap < size.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:    DefaultSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, c.size)
	}
	if c.overlap < 0 || c.overlap >= c.size {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got %d", domain.ErrInvalidInput, c.overlap)
	}

	return c, nil
}

// Size returns the configured window size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into consecutive windows. Each window after the
// first starts at the previous start plus (size - overlap); the walk
// terminates when a window's start reaches the text length. Empty text
// produces no chunks. No chunk exceeds size characters and consecutive
// chunks overlap by exactly the configured overlap, except possibly the
// final chunk, which may be shorter.
//
// Size and overlap count runes, not bytes, so a window boundary never
// splits a multi-byte character.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.size - c.overlap
	chunks := make([]string, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
