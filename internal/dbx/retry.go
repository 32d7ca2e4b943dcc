package dbx

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nulldatamap/xthevent/internal/common"
)

// RetryPolicy bounds how often a store-transient failure is retried.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// OnRetry, if set, is called before each wait.
	OnRetry func(err error, wait time.Duration)
}

// DefaultRetryPolicy retries up to three times starting at 50ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Retry runs fn and re-runs it with exponential backoff while it fails with a
// retryable error (common.IsRetryable). Any other error stops the loop and is
// returned as is. Cancelling ctx stops further attempts.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)

	op := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !common.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = p.OnRetry
	}

	return backoff.RetryNotify(op, b, notify)
}
