// Package retry implements retry-with-exponential-backoff for calls to
// rate-limited providers.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Default policy applied to embedding and generation calls.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// Policy holds the retry parameters. The zero value is not usable;
// construct with NewPolicy.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy creates a retry policy. Non-positive arguments fall back to
// the defaults.
func NewPolicy(maxAttempts int, baseDelay time.Duration) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Policy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepCtx,
	}
}

// Do invokes fn up to the configured attempt count. Only errors wrapping
// domain.ErrRateLimited are retried; the delay doubles after each
// attempt, starting from the base delay. Any other error propagates
// immediately.
func Do[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	delay := p.baseDelay

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, domain.ErrRateLimited) || attempt >= p.maxAttempts {
			return zero, err
		}

		logger.Warn("rate limited, waiting %s before retry %d/%d", delay, attempt, p.maxAttempts)
		if serr := p.sleep(ctx, delay); serr != nil {
			return zero, serr
		}
		delay *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
