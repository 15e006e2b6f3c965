// Package backoff provides the retry policy used for every network attempt,
// built on github.com/cenkalti/backoff/v4.
package backoff

import (
	"context"
	"log/slog"
	"time"

	cbackoff "github.com/cenkalti/backoff/v4"
	"github.com/fwojciec/langspec"
)

// Retry defaults.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second

	// jitterFactor spreads each delay by ±25%.
	jitterFactor = 0.25
	multiplier   = 2
	maxInterval  = 5 * time.Minute
)

// Policy retries an operation with exponential, jittered backoff. A
// server-specified wait (Retry-After) replaces the computed delay verbatim.
// The zero value uses the defaults.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// means DefaultMaxRetries; a negative value disables retries.
	MaxRetries int

	// InitialDelay is the base delay before the first retry; retry n waits
	// InitialDelay * 2^n.
	InitialDelay time.Duration

	// IsRetryable classifies errors. Defaults to langspec.IsRetryable.
	IsRetryable func(error) bool

	// Logger receives a warning per retry. Nil disables logging.
	Logger *slog.Logger

	// Timer waits between attempts. Nil uses a real timer.
	Timer cbackoff.Timer
}

// NewPolicy returns a Policy with default settings and the given logger.
func NewPolicy(logger *slog.Logger) *Policy {
	return &Policy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		Logger:       logger,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or
// exhausts its retries. The last error from op is returned unchanged.
func Do[T any](ctx context.Context, p *Policy, op func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		p = &Policy{}
	}
	isRetryable := p.IsRetryable
	if isRetryable == nil {
		isRetryable = langspec.IsRetryable
	}

	b := newServerWaitBackOff(p.initialDelay())
	attempt := 0

	operation := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !isRetryable(err) {
			return v, cbackoff.Permanent(err)
		}
		if d, ok := langspec.RetryAfter(err); ok {
			b.override(d)
		}
		return v, err
	}

	notify := func(err error, delay time.Duration) {
		if p.Logger == nil {
			return
		}
		p.Logger.Warn("retrying after error",
			"attempt", attempt,
			"maxRetries", p.maxRetries(),
			"delay", delay,
			"err", err,
		)
	}

	bo := cbackoff.WithContext(cbackoff.WithMaxRetries(b, uint64(p.maxRetries())), ctx)
	return cbackoff.RetryNotifyWithTimerAndData(operation, bo, notify, p.Timer)
}

func (p *Policy) maxRetries() int {
	if p.MaxRetries < 0 {
		return 0
	}
	if p.MaxRetries == 0 {
		return DefaultMaxRetries
	}
	return p.MaxRetries
}

func (p *Policy) initialDelay() time.Duration {
	if p.InitialDelay <= 0 {
		return DefaultInitialDelay
	}
	return p.InitialDelay
}

// serverWaitBackOff is an exponential backoff whose next delay can be
// replaced by a wait the server asked for.
type serverWaitBackOff struct {
	exp     *cbackoff.ExponentialBackOff
	wait    time.Duration
	hasWait bool
}

func newServerWaitBackOff(initial time.Duration) *serverWaitBackOff {
	exp := cbackoff.NewExponentialBackOff()
	exp.InitialInterval = initial
	exp.RandomizationFactor = jitterFactor
	exp.Multiplier = multiplier
	exp.MaxInterval = maxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()
	return &serverWaitBackOff{exp: exp}
}

func (b *serverWaitBackOff) override(d time.Duration) {
	b.wait, b.hasWait = d, true
}

// NextBackOff advances the exponential schedule even when a server wait
// is used, so later retries keep growing.
func (b *serverWaitBackOff) NextBackOff() time.Duration {
	next := b.exp.NextBackOff()
	if b.hasWait {
		next = b.wait
		b.wait, b.hasWait = 0, false
	}
	return next
}

func (b *serverWaitBackOff) Reset() {
	b.exp.Reset()
	b.wait, b.hasWait = 0, false
}
