package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the bucket sleeps, so tests never wait
// on real time.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestBucket(capacity, rate float64) (*TokenBucket, *fakeClock) {
	clock := newFakeClock()
	b := NewTokenBucket(capacity, rate)
	b.clock = clock.Now
	b.sleep = clock.Sleep
	b.last = clock.Now()
	return b, clock
}

func TestTokenBucketStartsFull(t *testing.T) {
	b, _ := newTestBucket(10, 1)
	require.Equal(t, 10.0, b.Available())
}

func TestTokenBucketConsumeDecrements(t *testing.T) {
	b, clock := newTestBucket(10, 1)

	b.Consume(3)
	require.Equal(t, 7.0, b.Available())
	require.Empty(t, clock.sleeps, "consume within capacity must not block")
}

func TestTokenBucketCapsOversizedRequest(t *testing.T) {
	b, clock := newTestBucket(5, 1)

	// A request larger than capacity is satisfied at capacity instead
	// of waiting forever.
	b.Consume(50)
	require.Equal(t, 0.0, b.Available())
	require.Empty(t, clock.sleeps)
}

func TestTokenBucketBlocksUntilRefill(t *testing.T) {
	b, clock := newTestBucket(2, 2)

	b.Consume(2)
	require.Equal(t, 0.0, b.Available())

	b.Consume(1)
	require.NotEmpty(t, clock.sleeps, "empty bucket must wait for refill")
	require.InDelta(t, 0.0, b.Available(), 0.001)
}

func TestTokenBucketSpacedConsumesNeverBlock(t *testing.T) {
	b, clock := newTestBucket(1, 1)

	for i := 0; i < 5; i++ {
		b.Consume(1)
		clock.Advance(time.Second)
	}
	require.Empty(t, clock.sleeps, "consumes at the refill rate must not block")
}

func TestTokenBucketRefillCapsAtCapacity(t *testing.T) {
	b, clock := newTestBucket(3, 10)

	b.Consume(1)
	clock.Advance(time.Hour)
	require.Equal(t, 3.0, b.Available())
}

func TestTokenBucketBackwardsClockAddsNothing(t *testing.T) {
	b, clock := newTestBucket(5, 1)

	b.Consume(2)
	clock.Advance(-time.Minute)
	require.Equal(t, 3.0, b.Available())
}

func TestTokenBucketDefaultsFloorInvalidInputs(t *testing.T) {
	b := NewTokenBucket(0, -1)
	require.Equal(t, 1.0, b.capacity)
	require.Equal(t, 1.0, b.rate)
}
