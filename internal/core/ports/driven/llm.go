package driven

import "context"

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// LLMService provides answer generation, whole and token-streamed.
type LLMService interface {
	// Generate produces a complete text completion from a prompt.
	// Rate-limit responses surface as errors wrapping domain.ErrRateLimited.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateStream opens a token stream for the prompt. Tokens arrive
	// on the first channel in generation order; the channel is closed on
	// normal completion. At most one error is delivered on the second
	// channel if the stream fails mid-flight. Cancelling ctx stops the
	// stream; the implementation must release its resources either way.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan string, <-chan error)

	// ModelName returns the name of the generation model being used.
	ModelName() string
}
