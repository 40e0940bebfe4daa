package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestExponentialDoubles(t *testing.T) {
	b := Exponential(2 * time.Second)
	assert.Equal(t, 2*time.Second, b(1))
	assert.Equal(t, 4*time.Second, b(2))
	assert.Equal(t, 8*time.Second, b(3))
	assert.Equal(t, 2*time.Second, b(0))
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	rs := &recordingSleep{}
	p := Policy{MaxAttempts: 3, Backoff: Exponential(time.Second), Sleep: rs.sleep}

	calls := 0
	err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return errors.New("boom")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rs.delays)
}

func TestDoExhausted(t *testing.T) {
	rs := &recordingSleep{}
	var retried []int
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Exponential(time.Second),
		Sleep:       rs.sleep,
		OnRetry:     func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) },
	}
	last := errors.New("still down")

	err := p.Do(context.Background(), func(context.Context, int) error { return last })

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, last)
	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 3, ex.Attempts)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Len(t, rs.delays, 2)
}

func TestDoPermanentStops(t *testing.T) {
	rs := &recordingSleep{}
	p := Policy{MaxAttempts: 5, Sleep: rs.sleep}
	inner := errors.New("bad request")

	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return Permanent(inner)
	})

	assert.Equal(t, inner, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rs.delays)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, Backoff: Constant(time.Hour)}

	calls := 0
	err := p.Do(ctx, func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestTimerSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, timerSleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, timerSleep(context.Background(), time.Millisecond))
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
