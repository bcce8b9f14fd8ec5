package domain

// SearchHit is a retrieved passage with its similarity score.
type SearchHit struct {
	// Score is the cosine similarity reported by the vector index.
	Score float64

	// Text is the passage content stored in the point payload.
	Text string

	// DocumentID identifies the document the passage came from.
	DocumentID string

	// ChunkIndex is the passage's position within the document.
	ChunkIndex int
}

// Source identifies one passage that grounded an answer.
type Source struct {
	// Index is the 1-based position of the passage in the prompt context.
	Index int `json:"index"`

	// DocumentID identifies the source document.
	DocumentID string `json:"documentId"`

	// Score is the similarity score at retrieval time.
	Score float64 `json:"score"`
}

// Answer is a generated answer together with its enumerated sources.
// This is also the value cached per (workspace, normalised question).
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// NoRelevantInformation is returned when vector search retrieves nothing
// for a question. The generation model is never invoked in that case.
const NoRelevantInformation = "I couldn't find relevant information in your documents."
