// Package backoff retries driving-side calls that failed with a transient
// domain error. The core pipeline never retries on its own; callers opt in here.
package backoff

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/logger"
)

// Defaults used by Do.
const (
	DefaultAttempts = 3
	DefaultBase     = 200 * time.Millisecond
	DefaultMax      = 5 * time.Second
)

// Policy configures retries. Zero fields use the defaults.
type Policy struct {
	// Retries is the number of retries after the first attempt.
	Retries uint64

	// Base is the first backoff interval; later ones double.
	Base time.Duration

	// Max caps the total time spent backing off.
	Max time.Duration
}

func (p Policy) backoff() retry.Backoff {
	retries, base, maxDur := p.Retries, p.Base, p.Max
	if retries == 0 {
		retries = DefaultAttempts
	}
	if base <= 0 {
		base = DefaultBase
	}
	if maxDur <= 0 {
		maxDur = DefaultMax
	}
	b := retry.NewExponential(base)
	b = retry.WithMaxDuration(maxDur, b)
	return retry.WithMaxRetries(retries, retry.WithJitter(base/4, b))
}

// Do runs fn with the default policy.
func Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return Policy{}.Do(ctx, op, fn)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// policy is exhausted. Only domain.IsRetryable errors are retried.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if domain.IsRetryable(err) {
			logger.Debug("%s: attempt %d failed, retrying: %v", op, attempt, err)
			return retry.RetryableError(err)
		}
		return err
	})
}
