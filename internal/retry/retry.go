// Package retry re-issues catalog calls that were rejected with a rate limit,
// waiting out the server-advertised delay between attempts.
package retry

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// RateLimitError is satisfied by errors that represent an HTTP 429 response.
//
// RetryAfter returns the raw Retry-After header value, possibly empty.
type RateLimitError interface {
	error
	RateLimited() bool
	RetryAfter() string
}

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default [Sleeper].
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier retries rate-limited calls. The zero value is usable.
//
// There is no attempt cap: a call that keeps being rate limited keeps being
// retried until it succeeds, fails differently, or ctx is cancelled.
type Retrier struct {
	Sleep  Sleeper
	Logger *log.Logger
}

// New returns a Retrier that logs waits to logger.
func New(logger *log.Logger) *Retrier {
	return &Retrier{Sleep: Sleep, Logger: logger}
}

func (r *Retrier) sleeper() Sleeper {
	if r == nil || r.Sleep == nil {
		return Sleep
	}
	return r.Sleep
}

// ParseRetryAfter converts a Retry-After header in seconds to a duration.
// Missing, negative and non-numeric values mean retry immediately.
func ParseRetryAfter(v string) time.Duration {
	secs, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// AsRateLimit reports whether err is a rate-limit error and returns it.
func AsRateLimit(err error) (RateLimitError, bool) {
	var rl RateLimitError
	if errors.As(err, &rl) && rl.RateLimited() {
		return rl, true
	}
	return nil, false
}

// Do calls fn until it returns something other than a rate-limit error.
func Do[T any](ctx context.Context, r *Retrier, fn func(context.Context) (T, error)) (T, error) {
	sleep := r.sleeper()
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		rl, ok := AsRateLimit(err)
		if !ok {
			return v, err
		}

		wait := ParseRetryAfter(rl.RetryAfter())
		if r != nil && r.Logger != nil {
			r.Logger.Warn("rate limited, waiting", "retry_after", wait, "attempt", attempt)
		}

		if err := sleep(ctx, wait); err != nil {
			var zero T
			return zero, err
		}
	}
}

// Wrap returns fn with the same signature, retried through r.
func Wrap[A, T any](r *Retrier, fn func(context.Context, A) (T, error)) func(context.Context, A) (T, error) {
	return func(ctx context.Context, a A) (T, error) {
		return Do(ctx, r, func(ctx context.Context) (T, error) { return fn(ctx, a) })
	}
}

// Wrap2 is [Wrap] for two-argument calls.
func Wrap2[A, B, T any](r *Retrier, fn func(context.Context, A, B) (T, error)) func(context.Context, A, B) (T, error) {
	return func(ctx context.Context, a A, b B) (T, error) {
		return Do(ctx, r, func(ctx context.Context) (T, error) { return fn(ctx, a, b) })
	}
}
