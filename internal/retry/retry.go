// Package retry provides a bounded-attempt retry policy with additive
// backoff for transient provider failures. Only errors classified as
// transient are retried; everything else propagates immediately.
package retry

import (
	"context"
	"errors"
	"net"
	"time"
)

// Transient is implemented by errors that represent a retryable
// condition, such as provider throttling or a gateway hiccup.
type Transient interface {
	Transient() bool
}

// IsTransient reports whether err should be retried. Transport timeouts
// and errors carrying a true Transient marker qualify; context
// cancellation never does.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var marker Transient
	if errors.As(err, &marker) {
		return marker.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Policy describes how many attempts to make and how long to wait
// between them. The delay before the i-th retry is
// BaseDelay + (i-1)*Increment.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Increment   time.Duration

	// Sleep is the suspension point between attempts. Tests inject a
	// recorder here; a nil Sleep uses the real clock.
	Sleep func(context.Context, time.Duration) error
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Wait(ctx, d)
}

// Do runs op until it succeeds, returns a non-transient error, or the
// attempt budget is exhausted. The last error is returned unwrapped so
// callers can classify it.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.attempts(); attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, p.BaseDelay+time.Duration(attempt-1)*p.Increment); err != nil {
				return err
			}
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}

// Wait sleeps for d or until the context is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
