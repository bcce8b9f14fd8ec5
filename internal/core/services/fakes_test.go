package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// In-memory fakes for the driven ports, injected through the service
// constructors.

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	getCall int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCall++
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) { return 1, nil }

func (f *fakeKV) Expire(_ context.Context, _ string, _ time.Duration) error { return nil }

type fakeMemory struct {
	mu         sync.Mutex
	turns      map[string][]domain.ChatMessage
	historyErr error
	appendErr  error
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{turns: map[string][]domain.ChatMessage{}}
}

func (f *fakeMemory) Append(_ context.Context, chatID string, msg domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.turns[chatID] = append(f.turns[chatID], msg)
	return nil
}

func (f *fakeMemory) History(_ context.Context, chatID string) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.turns[chatID], nil
}

type fakeEmbedder struct {
	mu       sync.Mutex
	vector   []float32
	embedErr error
	calls    int
	// perText lets batch calls fail for specific inputs.
	perText map[string]error
}

func newFakeEmbedder(dims int) *fakeEmbedder {
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = float32(i) / float32(dims)
	}
	return &fakeEmbedder{vector: vec, perText: map[string]error{}}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if err := f.perText[text]; err != nil {
		return nil, err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			// zero-vector degradation, mirroring the cached adapter
			vec = make([]float32, len(f.vector))
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

func (f *fakeEmbedder) ModelName() string { return "fake-embedding" }

type fakeVectors struct {
	mu        sync.Mutex
	points    []driven.Point
	hits      []domain.SearchHit
	searchErr error
	upsertErr error
	purgeErr  error

	searches    []string // workspace ids
	lastLimit   int
	purged      []string // document ids
	purgeBefore int      // points present when the last purge ran
}

func newFakeVectors() *fakeVectors { return &fakeVectors{} }

func (f *fakeVectors) Upsert(_ context.Context, points []driven.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.points = append(f.points, points...)
	return nil
}

func (f *fakeVectors) Search(_ context.Context, _ []float32, workspaceID string, limit int) ([]domain.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, workspaceID)
	f.lastLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeVectors) DeleteByDocument(_ context.Context, documentID string) driven.PurgeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, documentID)
	f.purgeBefore = len(f.points)
	if f.purgeErr != nil {
		return driven.PurgeResult{Err: f.purgeErr}
	}
	kept := f.points[:0]
	deleted := 0
	for _, p := range f.points {
		if p.DocumentID == documentID {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.points = kept
	return driven.PurgeResult{Deleted: deleted}
}

func (f *fakeVectors) Close() error { return nil }

func (f *fakeVectors) pointsFor(documentID string) []driven.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []driven.Point
	for _, p := range f.points {
		if p.DocumentID == documentID {
			out = append(out, p)
		}
	}
	return out
}

type fakeLLM struct {
	mu         sync.Mutex
	answer     string
	genErr     error
	tokens     []string
	streamErr  error
	lastPrompt string
	genCalls   int
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	f.lastPrompt = prompt
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.answer, nil
}

func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string, _ driven.GenerateOptions) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.genCalls++
	f.lastPrompt = prompt
	tokens := append([]string(nil), f.tokens...)
	streamErr := f.streamErr
	f.mu.Unlock()

	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		for _, tok := range tokens {
			select {
			case out <- tok:
			case <-ctx.Done():
				close(out)
				return
			}
		}
		close(out)
		if streamErr != nil {
			errs <- streamErr
		}
	}()
	return out, errs
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []domain.IngestionJob
	err      error
}

func (f *fakeQueue) Enqueue(_ context.Context, job domain.IngestionJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

func (f *fakeQueue) Consume(_ context.Context, _ driven.JobHandler) error { return nil }

func (f *fakeQueue) Close() error { return nil }

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
	putErr  error
	delErr  error
	deleted []string
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{objects: map[string][]byte{}} }

func blobKey(bucket, key string) string { return bucket + "/" + key }

func (f *fakeBlobs) Get(_ context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[blobKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, bucket, key)
	}
	return data, nil
}

func (f *fakeBlobs) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[blobKey(bucket, key)] = data
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, blobKey(bucket, key))
	f.deleted = append(f.deleted, blobKey(bucket, key))
	return nil
}

type fakeDocs struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	history   map[string][]domain.DocumentStatus
	updateErr error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]*domain.Document{}, history: map[string][]domain.DocumentStatus{}}
}

func (f *fakeDocs) Create(_ context.Context, doc domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := doc
	f.docs[doc.ID] = &d
	return nil
}

func (f *fakeDocs) Get(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	d := *doc
	return &d, nil
}

func (f *fakeDocs) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	doc.Status = status
	doc.ErrorMessage = errorMessage
	f.history[id] = append(f.history[id], status)
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeDocs) ListByWorkspace(_ context.Context, workspaceID string) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Document
	for _, doc := range f.docs {
		if doc.WorkspaceID == workspaceID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocs) Close() error { return nil }

func (f *fakeDocs) statusHistory(id string) []domain.DocumentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DocumentStatus(nil), f.history[id]...)
}

type fakeExtractor struct {
	text string
	// perKey overrides the result for specific blob keys.
	perKey map[string]error
}

func (f *fakeExtractor) Extract(blob []byte, key string) (string, error) {
	if err := f.perKey[key]; err != nil {
		return "", err
	}
	if f.text != "" {
		return f.text, nil
	}
	return string(blob), nil
}

// collectSink accumulates forwarded tokens, optionally failing after a
// number of tokens to simulate a disconnected client.
type collectSink struct {
	mu        sync.Mutex
	tokens    []string
	failAfter int // 0 = never fail
}

func (c *collectSink) Token(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAfter > 0 && len(c.tokens) >= c.failAfter {
		return fmt.Errorf("client disconnected")
	}
	c.tokens = append(c.tokens, text)
	return nil
}

func (c *collectSink) collected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.tokens...)
}
