// Package gemini provides a generation model adapter using the Gemini
// API, in whole-answer and token-streaming variants.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/retry"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public Gemini endpoint).
	BaseURL string

	// Model is the generation model to use (default: gemini-2.0-flash).
	Model string

	// Timeout is the whole-answer request timeout (default: 120s).
	// Streaming requests are bounded by their context instead.
	Timeout time.Duration

	// Retry overrides the rate-limit retry policy for whole answers.
	Retry *retry.Policy
}

// LLMService generates answers using the Gemini API. Whole-answer calls
// are retried on rate limit; streaming calls are not.
type LLMService struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	apiKey       string
	model        string
	retry        *retry.Policy
}

// generateRequest is the Gemini generateContent request format.
type generateRequest struct {
	Contents         []reqContent      `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type reqContent struct {
	Parts []reqPart `json:"parts"`
}

type reqPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// generateResponse is the Gemini generateContent response format, also
// used for each streamed chunk.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.NewPolicy(retry.DefaultMaxAttempts, retry.DefaultBaseDelay)
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		// no overall timeout: a stream lives as long as its context
		streamClient: &http.Client{},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		retry:        cfg.Retry,
	}, nil
}

// Generate produces a complete answer for the prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return retry.Do(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.generateOnce(ctx, prompt, opts)
	})
}

func (s *LLMService) generateOnce(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model)
	resp, err := s.send(ctx, s.client, url, prompt, opts)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: gemini generation", domain.ErrRateLimited)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("%w: gemini error: %s", domain.ErrUpstream, genResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: gemini status %d: %s", domain.ErrUpstream, resp.StatusCode, string(body))
	}

	text := chunkText(&genResp)
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no candidates", domain.ErrUpstream)
	}
	return text, nil
}

// GenerateStream opens a server-sent-events stream for the prompt.
// Tokens are delivered in generation order on the first channel, which
// is closed on completion; at most one error follows on the second
// channel, which is always closed last.
func (s *LLMService) GenerateStream(ctx context.Context, prompt string, opts driven.GenerateOptions) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		err := s.streamOnce(ctx, prompt, opts, tokens)
		close(tokens)
		if err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()

	return tokens, errs
}

func (s *LLMService) streamOnce(ctx context.Context, prompt string, opts driven.GenerateOptions, tokens chan<- string) error {
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", s.baseURL, s.model)
	resp, err := s.send(ctx, s.streamClient, url, prompt, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: gemini generation", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: gemini status %d: %s", domain.ErrUpstream, resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok || data == "" {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return fmt.Errorf("%w: gemini error: %s", domain.ErrUpstream, chunk.Error.Message)
		}

		text := chunkText(&chunk)
		if text == "" {
			continue
		}
		select {
		case tokens <- text:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: read stream: %v", domain.ErrUpstream, err)
	}

	return nil
}

func (s *LLMService) send(ctx context.Context, client *http.Client, url, prompt string, opts driven.GenerateOptions) (*http.Response, error) {
	reqBody := generateRequest{
		Contents: []reqContent{{Parts: []reqPart{{Text: prompt}}}},
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		reqBody.GenerationConfig = &generationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

// chunkText concatenates the text parts of the first candidate.
func chunkText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// ModelName returns the name of the generation model being used.
func (s *LLMService) ModelName() string {
	return s.model
}
