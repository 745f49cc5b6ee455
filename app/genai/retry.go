package genai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Backoff bounds a retried call: at most Attempts calls, waiting Delay
// before the second and multiplying the wait by Multiplier after each
// failure.
type Backoff struct {
	Attempts   int
	Delay      time.Duration
	Multiplier float64
}

var DefaultBackoff = Backoff{Attempts: 3, Delay: 2 * time.Second, Multiplier: 2}

// exponential builds the wait policy without jitter.
func (b Backoff) exponential() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.Delay
	bo.RandomizationFactor = 0
	bo.Multiplier = max(b.Multiplier, 1)
	bo.MaxInterval = 5 * time.Minute
	bo.Reset()
	return bo
}

// Retry calls fn until it succeeds, the attempts run out or ctx ends. It
// returns the number of attempts made alongside the last result.
func Retry[T any](ctx context.Context, b Backoff, fn func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	var zero T
	attempts := max(b.Attempts, 1)

	attempt := 0
	var lastErr error
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	},
		backoff.WithBackOff(b.exponential()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return result, attempt, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, attempt, errors.Join(lastErr, ctxErr)
	}
	return zero, attempt, lastErr
}
