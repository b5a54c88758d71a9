// Package retry runs an operation against a freshly fetched input, retrying
// transient failures with exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	// MaxAttempts bounds the total number of attempts, including the first.
	// Zero or less means a single attempt.
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	// Transient decides whether an error is worth another attempt. A nil
	// Transient retries every error.
	Transient func(error) bool
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         4,
		InitialInterval:     50 * time.Millisecond,
		MaxInterval:         time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.5,
	}
}

// Do calls fetch and then op until op succeeds, a non-transient error is
// returned, attempts run out or ctx is done. fetch runs before every attempt
// so op never sees input left over from a failed attempt.
func Do[In, Out any](
	ctx context.Context,
	p Policy,
	fetch func(context.Context) (In, error),
	op func(context.Context, In) (Out, error),
) (Out, error) {
	attempt := 0
	operation := func() (Out, error) {
		attempt++
		var zero Out

		in, err := fetch(ctx)
		if err != nil {
			return zero, p.classify(ctx, err)
		}
		out, err := op(ctx, in)
		if err != nil {
			return zero, p.classify(ctx, err)
		}
		return out, nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("retrying after transient failure", "attempt", attempt, "wait", wait, "err", err)
	}

	return backoff.RetryNotifyWithData(operation, p.backOff(ctx), notify)
}

func (p Policy) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(err)
	}
	if p.Transient != nil && !p.Transient(err) {
		return backoff.Permanent(err)
	}
	return err
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		eb.Multiplier = p.Multiplier
	}
	if p.RandomizationFactor >= 0 {
		eb.RandomizationFactor = p.RandomizationFactor
	}
	eb.MaxElapsedTime = 0
	eb.Reset()

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
