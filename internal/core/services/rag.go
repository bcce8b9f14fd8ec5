package services

import (
	"context"
	"crypto/md5" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

// Default query pipeline parameters.
const (
	DefaultTopK           = 5
	DefaultAnswerCacheTTL = 5 * time.Minute
	defaultMaxTokens      = 1024
)

// RAGService answers questions grounded in a workspace's documents.
// All collaborators are injected; the answer cache and chat memory are
// best-effort and never fail a request.
type RAGService struct {
	cache    driven.KVCache
	memory   driven.ChatMemory
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	llm      driven.LLMService

	topK      int
	grounding domain.GroundingMode
	answerTTL time.Duration
}

// RAGOption configures the RAG service.
type RAGOption func(*RAGService)

// WithTopK sets the number of passages retrieved per question.
func WithTopK(k int) RAGOption {
	return func(s *RAGService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithGrounding sets the prompt policy for this deployment.
func WithGrounding(mode domain.GroundingMode) RAGOption {
	return func(s *RAGService) {
		if mode.Valid() {
			s.grounding = mode
		}
	}
}

// WithAnswerCacheTTL sets the answer cache expiry.
func WithAnswerCacheTTL(ttl time.Duration) RAGOption {
	return func(s *RAGService) {
		if ttl > 0 {
			s.answerTTL = ttl
		}
	}
}

// NewRAGService creates a RAG service. cache and memory may be nil, in
// which case answer caching and conversation memory are disabled.
func NewRAGService(
	cache driven.KVCache,
	memory driven.ChatMemory,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	llm driven.LLMService,
	opts ...RAGOption,
) *RAGService {
	s := &RAGService{
		cache:     cache,
		memory:    memory,
		embedder:  embedder,
		vectors:   vectors,
		llm:       llm,
		topK:      DefaultTopK,
		grounding: domain.GroundingStrict,
		answerTTL: DefaultAnswerCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask runs the full pipeline and returns the complete answer.
func (s *RAGService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	if err := validateAsk(req); err != nil {
		return nil, err
	}

	if cached := s.cachedAnswer(ctx, req); cached != nil {
		logger.Debug("answer cache hit for workspace %s", req.WorkspaceID)
		return cached, nil
	}

	prep, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if prep.empty() {
		return &domain.Answer{Answer: domain.NoRelevantInformation, Sources: []domain.Source{}}, nil
	}

	text, err := s.llm.Generate(ctx, prep.prompt, driven.GenerateOptions{MaxTokens: defaultMaxTokens})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := &domain.Answer{Answer: text, Sources: prep.sources()}
	s.persist(ctx, req, answer)
	return answer, nil
}

// AskStream runs the pipeline, forwarding tokens to sink in generation
// order. Memory and cache writes happen exactly once, after a normal
// completion. If the consumer disappears mid-stream the provider stream
// is drained and the side effects are skipped.
func (s *RAGService) AskStream(ctx context.Context, req driving.AskRequest, sink driving.TokenSink) (*domain.Answer, error) {
	if err := validateAsk(req); err != nil {
		return nil, err
	}

	if cached := s.cachedAnswer(ctx, req); cached != nil {
		logger.Debug("answer cache hit (streaming) for workspace %s", req.WorkspaceID)
		// emitted as a single chunk
		_ = sink.Token(cached.Answer)
		return cached, nil
	}

	prep, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if prep.empty() {
		fixed := &domain.Answer{Answer: domain.NoRelevantInformation, Sources: []domain.Source{}}
		_ = sink.Token(fixed.Answer)
		return fixed, nil
	}

	tokens, errs := s.llm.GenerateStream(ctx, prep.prompt, driven.GenerateOptions{MaxTokens: defaultMaxTokens})

	var full strings.Builder
	consumerGone := false

	// Drain the token channel to completion even if the consumer is
	// gone, so the in-flight generation call is always resolved.
	for token := range tokens {
		if token == "" {
			continue
		}
		full.WriteString(token)
		if !consumerGone {
			if werr := sink.Token(token); werr != nil {
				logger.Debug("stream consumer gone: %v", werr)
				consumerGone = true
			}
		}
	}
	if gerr := <-errs; gerr != nil {
		return nil, fmt.Errorf("generate stream: %w", gerr)
	}

	answer := &domain.Answer{Answer: full.String(), Sources: prep.sources()}
	if consumerGone || ctx.Err() != nil {
		logger.Debug("skipping memory and cache writes, consumer disconnected")
		return answer, nil
	}

	s.persist(ctx, req, answer)
	return answer, nil
}

// prepared holds the state shared by both pipeline variants after
// retrieval.
type prepared struct {
	prompt string
	hits   []domain.SearchHit
}

func (p *prepared) empty() bool { return len(p.hits) == 0 }

func (p *prepared) sources() []domain.Source {
	sources := make([]domain.Source, len(p.hits))
	for i, hit := range p.hits {
		sources[i] = domain.Source{
			Index:      i + 1,
			DocumentID: hit.DocumentID,
			Score:      hit.Score,
		}
	}
	return sources
}

// prepare runs steps 2-6: memory fetch, question embedding, vector
// search and prompt assembly. Memory failures degrade to an empty
// transcript; embedding and search failures are fatal to the request.
func (s *RAGService) prepare(ctx context.Context, req driving.AskRequest) (*prepared, error) {
	var history []domain.ChatMessage
	if req.ChatID != "" && s.memory != nil {
		var err error
		history, err = s.memory.History(ctx, req.ChatID)
		if err != nil {
			logger.Warn("chat memory unavailable for %s: %v", req.ChatID, err)
			history = nil
		}
	}

	vector, err := s.embedder.Embed(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.vectors.Search(ctx, vector, req.WorkspaceID, s.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		logger.Debug("no passages retrieved for workspace %s", req.WorkspaceID)
		return &prepared{}, nil
	}

	return &prepared{
		prompt: buildPrompt(s.grounding, history, hits, req.Question),
		hits:   hits,
	}, nil
}

// persist runs the post-generation side effects: append the turn to
// chat memory and cache the final answer. Both are best-effort.
func (s *RAGService) persist(ctx context.Context, req driving.AskRequest, answer *domain.Answer) {
	if req.ChatID != "" && s.memory != nil {
		if err := s.memory.Append(ctx, req.ChatID, domain.ChatMessage{Role: domain.RoleUser, Content: req.Question}); err != nil {
			logger.Warn("save user turn for %s: %v", req.ChatID, err)
		} else if err := s.memory.Append(ctx, req.ChatID, domain.ChatMessage{Role: domain.RoleAssistant, Content: answer.Answer}); err != nil {
			logger.Warn("save assistant turn for %s: %v", req.ChatID, err)
		}
	}

	if s.cache == nil {
		return
	}
	data, err := json.Marshal(answer)
	if err != nil {
		logger.Warn("marshal answer for cache: %v", err)
		return
	}
	if err := s.cache.Set(ctx, answerCacheKey(req.WorkspaceID, req.Question), string(data), s.answerTTL); err != nil {
		logger.Warn("cache answer: %v", err)
	}
}

// cachedAnswer checks the answer cache. Any cache failure is treated as
// a miss.
func (s *RAGService) cachedAnswer(ctx context.Context, req driving.AskRequest) *domain.Answer {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, answerCacheKey(req.WorkspaceID, req.Question))
	if err != nil {
		return nil
	}
	var answer domain.Answer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		logger.Warn("corrupt cached answer: %v", err)
		return nil
	}
	return &answer
}

func validateAsk(req driving.AskRequest) error {
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if req.WorkspaceID == "" {
		return fmt.Errorf("%w: workspaceId is required", domain.ErrInvalidInput)
	}
	return nil
}

// answerCacheKey addresses an answer by workspace and the normalised
// question text.
func answerCacheKey(workspaceID, question string) string {
	normalised := strings.ToLower(strings.TrimSpace(question))
	sum := md5.Sum([]byte(normalised)) //nolint:gosec // content addressing, not security
	return fmt.Sprintf("rag:%s:%s", workspaceID, hex.EncodeToString(sum[:]))
}
