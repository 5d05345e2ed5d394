package errors

import (
	"context"
	"math"
	"time"
)

const (
	MaxRetries        = 3
	InitialBackoff    = 100 * time.Millisecond
	MaxBackoff        = 5 * time.Second
	BackoffMultiplier = 2.0
)

// WithRetry runs fn with exponential backoff. It is used for state-store
// writes at the end of a cycle, where losing the watermark would reprocess the
// whole batch; fetch and send paths never retry (the next scheduled cycle is
// the retry).
func WithRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err = fn(); err == nil {
			return nil
		}

		if attempt == MaxRetries {
			break
		}

		backoff := time.Duration(float64(InitialBackoff) * math.Pow(BackoffMultiplier, float64(attempt)))
		if backoff > MaxBackoff {
			backoff = MaxBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return err
}
