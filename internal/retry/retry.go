// Package retry runs an operation under a bounded attempt budget with a
// deterministic backoff between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is matched by every error returned after the final attempt fails.
var ErrExhausted = errors.New("retry: attempts exhausted")

// BackoffFunc returns the delay to wait before retry number n (n starts at 1).
type BackoffFunc func(n int) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Exponential doubles base for every retry: base, 2*base, 4*base, ...
func Exponential(base time.Duration) BackoffFunc {
	return func(n int) time.Duration {
		if n < 1 {
			n = 1
		}
		return base * time.Duration(1<<(n-1))
	}
}

// Constant waits d before every retry.
func Constant(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Policy describes how many times to try and how long to wait in between.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	// Sleep defaults to a timer that honours ctx cancellation.
	Sleep SleepFunc
	// OnRetry is called before each sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Default is three attempts total with 2s, 4s between them.
func Default() Policy {
	return Policy{MaxAttempts: 3, Backoff: Exponential(2 * time.Second)}
}

// ExhaustedError reports the final failure once all attempts were used.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: %d attempts exhausted: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Last}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the inner error as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, ctx ends, or
// MaxAttempts is reached. attempt passed to fn starts at 1.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Constant(0)
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		delay := backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
	return &ExhaustedError{Attempts: maxAttempts, Last: lastErr}
}

func timerSleep(ctx context.Context, d time.Duration) error {
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
