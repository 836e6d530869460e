package entity

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/cmaclient/pkg/apierror"
)

// RetryOptions bounds RetryOnVersionMismatch.
type RetryOptions struct {
	// MaxAttempts is the total number of update attempts. Defaults to 3.
	MaxAttempts int

	// InitialInterval is the first backoff delay. Defaults to 100ms.
	InitialInterval time.Duration

	Logger hclog.Logger
}

// RetryOnVersionMismatch runs fetch, mutate and Update until the update is
// accepted. Only version conflicts are retried; any other error, including
// one from fetch or mutate, ends the loop. When attempts run out the last
// *apierror.VersionMismatchError is returned.
//
// Updates never retry by themselves. This is the explicit opt-in for callers
// whose mutation is safe to reapply on fresh data.
func RetryOnVersionMismatch(
	ctx context.Context,
	fetch func(context.Context) (*Entity, error),
	mutate func(*Entity) error,
	opts RetryOptions,
) (*Entity, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	var updated *Entity
	attempt := 0
	op := func() error {
		attempt++
		current, err := fetch(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := mutate(current); err != nil {
			return backoff.Permanent(err)
		}
		updated, err = current.Update(ctx)
		if err == nil {
			return nil
		}
		if apierror.IsVersionMismatch(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialInterval
	b.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		opts.Logger.Debug("version conflict, refetching",
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(opts.MaxAttempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return updated, nil
}
