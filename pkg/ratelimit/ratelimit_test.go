package ratelimit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCallSucceedsFirstTry(t *testing.T) {
	c := New(Config{MaxTokens: 5, Window: time.Second})
	var calls int64
	res, err := c.Call(context.Background(), "test", func(ctx context.Context) (any, error) {
		atomic.AddInt64(&calls, 1)
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", res)
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

// TestQueueingUnderLimit approximates scenario S6: 12 calls at 5/1000ms.
// The first 5 use the initial burst and the other 7 wait for tokens that
// refill one every 200ms, so the batch takes about 1.4s of wall time; the
// test asserts at least 1.2s and that every call succeeds.
func TestQueueingUnderLimit(t *testing.T) {
	c := New(Config{MaxTokens: 5, Window: time.Second})
	var successes int64
	start := time.Now()

	done := make(chan struct{})
	for i := 0; i < 12; i++ {
		go func() {
			_, err := c.Call(context.Background(), "rpc", func(ctx context.Context) (any, error) {
				return nil, nil
			})
			if err == nil {
				atomic.AddInt64(&successes, 1)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 12; i++ {
		<-done
	}
	elapsed := time.Since(start)
	require.Equal(t, int64(12), atomic.LoadInt64(&successes))
	require.GreaterOrEqual(t, elapsed, 1200*time.Millisecond)

	m := c.Metrics()
	require.Equal(t, int64(12), m.TotalCalls)
}

func TestCallRetriesOnError(t *testing.T) {
	c := New(Config{MaxTokens: 5, Window: 50 * time.Millisecond, BaseBackoff: time.Millisecond, MaxRetries: 2})
	var attempts int64
	_, err := c.Call(context.Background(), "flaky", func(ctx context.Context) (any, error) {
		n := atomic.AddInt64(&attempts, 1)
		if n < 3 {
			return nil, errTemp
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

var errTemp = errTemporary{}

type errTemporary struct{}

func (errTemporary) Error() string { return "temporary" }
