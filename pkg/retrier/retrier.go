// Package retrier implements bounded retries with exponential backoff.
package retrier

import (
	"context"
	"time"
)

// Retrier runs an operation up to a fixed number of attempts, doubling the
// wait between attempts.
type Retrier struct {
	attempts int
	initial  time.Duration
}

// New returns a Retrier with the given attempt budget and initial backoff.
func New(attempts int, initial time.Duration) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrier{attempts: attempts, initial: initial}
}

// Do invokes fn until it succeeds, the attempt budget is spent, or ctx is
// done. The last error is returned.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	var err error
	backoff := r.initial

	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
