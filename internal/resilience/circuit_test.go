package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail(context.Context) (int, error) { return 0, errBoom }
func succeed(context.Context) (int, error) { return 1, nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	ctx := context.Background()

	_, _ = Call(ctx, b, fail)
	assert.Equal(t, CircuitClosed, b.State())
	_, _ = Call(ctx, b, fail)
	assert.Equal(t, CircuitOpen, b.State())

	called := false
	_, err := Call(ctx, b, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2})
	ctx := context.Background()

	_, _ = Call(ctx, b, fail)
	v, err := Call(ctx, b, succeed)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	_, _ = Call(ctx, b, fail)
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var transitions []string
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Second,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})
	b.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	_, _ = Call(ctx, b, fail)
	assert.Equal(t, CircuitOpen, b.State())

	now = now.Add(11 * time.Second)
	assert.Equal(t, CircuitHalfOpen, b.State())

	_, _ = Call(ctx, b, fail)
	assert.Equal(t, CircuitOpen, b.State())

	now = now.Add(11 * time.Second)
	_, err := Call(ctx, b, succeed)
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, b.State())

	assert.Equal(t, []string{
		"closed>open",
		"open>half-open",
		"half-open>open",
		"open>half-open",
		"half-open>closed",
	}, transitions)
}

func TestBreaker_ShouldTrip(t *testing.T) {
	notFound := errors.New("not found")
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 1,
		ShouldTrip:       func(err error) bool { return IsTransient(err) },
	})
	ctx := context.Background()

	_, _ = Call(ctx, b, func(context.Context) (int, error) { return 0, notFound })
	assert.Equal(t, CircuitClosed, b.State())

	_, _ = Call(ctx, b, func(context.Context) (int, error) {
		return 0, NewTransientError(errBoom, 503)
	})
	assert.Equal(t, CircuitOpen, b.State())
}

func TestBreaker_ConcurrentCalls(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1000})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = Call(context.Background(), b, fail)
				return
			}
			_, _ = Call(context.Background(), b, succeed)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, CircuitClosed, b.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
