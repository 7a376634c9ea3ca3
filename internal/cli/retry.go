package cli

import (
	"context"
	"time"

	"github.com/cenk/backoff"

	"github.com/matzehuels/nugetfetch/pkg/cache"
)

// withRetries runs op, retrying up to Settings.Retries times with
// exponential backoff while it fails with a retryable error.
func (c *CLI) withRetries(ctx context.Context, op func() error) error {
	if c.Settings.Retries <= 0 {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.Settings.Retries)), ctx)
	return backoff.RetryNotify(func() error {
		err := op()
		if err != nil && !cache.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		c.Logger.Warn("request failed, retrying", "err", err, "wait", wait.Round(time.Millisecond))
	})
}
