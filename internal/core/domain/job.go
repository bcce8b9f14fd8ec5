package domain

// IngestionJob is the unit of work carried on the durable ingestion queue.
// Its lifecycle is entirely queue-resident: enqueued, delivered, then
// acked or nacked. Delivery is at-least-once, so processing must be safe
// to repeat for the same document.
type IngestionJob struct {
	DocumentID  string `json:"documentId"`
	WorkspaceID string `json:"workspaceId"`
	Bucket      string `json:"bucket"`
	BlobKey     string `json:"blobKey"`
}
