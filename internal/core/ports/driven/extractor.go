package driven

// TextExtractor converts a raw document blob into plain text,
// dispatching on the blob key's file type. Malformed content returns an
// error wrapping domain.ErrExtraction.
type TextExtractor interface {
	Extract(blob []byte, key string) (string, error)
}
