package service

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/log"
	"github.com/pkg/errors"
)

// RetryPolicy bounds every upstream call: each attempt gets its own timeout and failed
// attempts are repeated with exponential backoff.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	Timeout  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 2,
		Delay:    time.Second,
		Timeout:  30 * time.Second,
	}
}

func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	return retry.Do(
		func() error {
			callCtx, cancel := ctx, context.CancelFunc(func() {})
			if p.Timeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			}
			defer cancel()

			return fn(callCtx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Logger.Debugw("upstream call failed, retrying", "attempt", n+1, "error", err)
		}),
	)
}

func isRetryable(err error) bool {
	return !errors.Is(err, models.ErrQuotaExceeded) &&
		!errors.Is(err, models.ErrNotAvailable) &&
		!errors.Is(err, context.Canceled)
}
