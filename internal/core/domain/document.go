package domain

import "time"

// DocumentStatus represents a document's position in the ingestion lifecycle.
type DocumentStatus string

// Document lifecycle states. A document is created as UPLOADED and is
// only moved by the ingestion worker: PROCESSING, then READY or FAILED.
const (
	StatusUploaded   DocumentStatus = "UPLOADED"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusReady      DocumentStatus = "READY"
	StatusFailed     DocumentStatus = "FAILED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusReady, StatusFailed:
		return true
	}
	return false
}

// Document represents an uploaded document and its ingestion state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// WorkspaceID scopes the document to a tenant workspace.
	WorkspaceID string

	// Name is the original file name shown to users.
	Name string

	// MediaType is the MIME type reported at upload.
	MediaType string

	// Status is the current lifecycle state.
	Status DocumentStatus

	// ErrorMessage holds the ingestion failure reason when Status is FAILED.
	ErrorMessage string

	// BlobBucket and BlobKey locate the raw bytes in the blob store.
	BlobBucket string
	BlobKey    string

	// CreatedAt is when the document row was created.
	CreatedAt time.Time

	// UpdatedAt is when the document row was last modified.
	UpdatedAt time.Time
}
