package registry

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCoordinatorDeduplicatesIdenticalRequests(t *testing.T) {
	c := NewCoordinator(4, nil)

	var calls atomic.Int32
	gate := make(chan struct{})

	fn := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		<-gate
		return []byte("shared"), nil
	}

	const waiters = 5
	var wg sync.WaitGroup
	results := make([][]byte, waiters)
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Do(context.Background(), "GET /v1/mods/42?", fn)
		}(i)
	}

	// Wait for the first caller to start executing so the rest dedup
	// against it.
	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, time.Millisecond)

	close(gate)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load(), "identical concurrent requests must share one upstream call")
	for i, body := range results {
		require.NoError(t, errs[i])
		require.Equal(t, []byte("shared"), body)
	}
}

func TestCoordinatorSharesFailures(t *testing.T) {
	c := NewCoordinator(2, nil)

	gate := make(chan struct{})
	fail := errors.New("upstream exploded")
	fn := func(ctx context.Context) ([]byte, error) {
		<-gate
		return nil, fail
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), "key", fn)
		}(i)
	}

	require.Eventually(t, func() bool { return c.Active() == 1 }, time.Second, time.Millisecond)
	close(gate)
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, fail)
	}
}

func TestCoordinatorEvictsKeyAfterCompletion(t *testing.T) {
	c := NewCoordinator(1, nil)

	var calls atomic.Int32
	fn := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("ok"), nil
	}

	_, err := c.Do(context.Background(), "key", fn)
	require.NoError(t, err)
	_, err = c.Do(context.Background(), "key", fn)
	require.NoError(t, err)

	require.Equal(t, int32(2), calls.Load(), "a completed key must not satisfy later callers")
}

func TestCoordinatorQueuesBeyondCapInOrder(t *testing.T) {
	c := NewCoordinator(1, nil)

	gate := make(chan struct{})
	var order []string
	var orderMu sync.Mutex
	var peak atomic.Int32
	var running atomic.Int32

	fn := func(key string, block bool) RequestFunc {
		return func(ctx context.Context) ([]byte, error) {
			now := running.Add(1)
			if now > peak.Load() {
				peak.Store(now)
			}
			if block {
				<-gate
			}
			orderMu.Lock()
			order = append(order, key)
			orderMu.Unlock()
			running.Add(-1)
			return nil, nil
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.Do(context.Background(), "first", fn("first", true))
	}()
	require.Eventually(t, func() bool { return c.Active() == 1 }, time.Second, time.Millisecond)

	// Enqueue two more while capacity is exhausted, one at a time so
	// the queue order is deterministic.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.Do(context.Background(), "second", fn("second", false))
	}()
	require.Eventually(t, func() bool { return c.QueueDepth() == 1 }, time.Second, time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.Do(context.Background(), "third", fn("third", false))
	}()
	require.Eventually(t, func() bool { return c.QueueDepth() == 2 }, time.Second, time.Millisecond)

	close(gate)
	wg.Wait()

	require.Equal(t, []string{"first", "second", "third"}, order)
	require.Equal(t, int32(1), peak.Load(), "concurrency cap must never be exceeded")
	require.Equal(t, 0, c.Active())
	require.Equal(t, 0, c.QueueDepth())
}

func TestRequestKeyIsDeterministic(t *testing.T) {
	a := url.Values{}
	a.Set("gameId", "432")
	a.Set("pageSize", "20")

	b := url.Values{}
	b.Set("pageSize", "20")
	b.Set("gameId", "432")

	require.Equal(t, RequestKey("GET", "/v1/mods/search", a), RequestKey("GET", "/v1/mods/search", b))
	require.Equal(t, "GET /v1/mods/search?gameId=432&pageSize=20", RequestKey("GET", "/v1/mods/search", a))
}

func TestCacheKeyIsCompactAndPrefixed(t *testing.T) {
	key := CacheKey("search", "GET /v1/mods/search?gameId=432")
	require.True(t, strings.HasPrefix(key, "search:"))
	require.Len(t, key, len("search:")+24)

	other := CacheKey("search", "GET /v1/mods/search?gameId=433")
	require.NotEqual(t, key, other)
}
