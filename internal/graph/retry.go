package graph

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/seocho-ai/seocho/internal/model"
)

// WithRetry executes fn, retrying up to maxRetries times on infrastructure
// errors. Retries use jittered exponential backoff starting at baseDelay
// and capped at maxDelay. Validation and parse errors return immediately.
func WithRetry(ctx context.Context, maxRetries int, baseDelay, maxDelay time.Duration, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil || !model.IsRetriable(err) {
			return err
		}
		if attempt == maxRetries {
			break
		}
		jitter := time.Duration(rand.Int64N(int64(baseDelay))) //nolint:gosec // jitter doesn't need crypto-strength randomness
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseDelay + jitter):
		}
		baseDelay *= 2
		if baseDelay > maxDelay {
			baseDelay = maxDelay
		}
	}
	return err
}
