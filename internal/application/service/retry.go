package service

import (
	"context"
	"time"

	"github.com/sangkips/fieldops-api/pkg/apperror"
)

// RetryPolicy bounds automatic retries of read-only store work
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds, fails with a non-retryable error, runs out of
// attempts, or ctx is done. The delay grows linearly with the attempt number.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !apperror.IsRetryable(err) || attempt >= attempts {
			return err
		}

		timer := time.NewTimer(p.Delay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// storeErr wraps raw persistence errors so callers can classify them
func storeErr(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewStoreError(err)
}
