package registry

import (
	"sync"
	"time"
)

// TokenBucket governs the outbound request rate against the registry's
// published limit. Consume blocks the caller until enough tokens have
// accumulated; it never busy-waits and exposes no cancellation (callers
// that must give up rely on the transport's request timeout instead).
type TokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time

	clock func() time.Time
	sleep func(time.Duration)
}

// NewTokenBucket returns a bucket starting full.
func NewTokenBucket(capacity, refillPerSecond float64) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillPerSecond <= 0 {
		refillPerSecond = 1
	}
	b := &TokenBucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     refillPerSecond,
		clock:    func() time.Time { return time.Now().UTC() },
		sleep:    time.Sleep,
	}
	b.last = b.clock()
	return b
}

// Consume blocks until n tokens are available, then decrements.
// Requests larger than the bucket capacity are capped to capacity,
// otherwise they could never be satisfied.
func (b *TokenBucket) Consume(n float64) {
	if n <= 0 {
		n = 1
	}
	if n > b.capacity {
		n = b.capacity
	}

	for {
		b.mu.Lock()
		b.refill()
		if b.tokens >= n {
			b.tokens -= n
			b.mu.Unlock()
			return
		}
		missing := n - b.tokens
		wait := time.Duration(missing / b.rate * float64(time.Second))
		b.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}
		b.sleep(wait)
	}
}

// Available reports the current token count after a refill pass.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// refill is called with the mutex held. Refill is monotonic: a clock
// that steps backwards adds nothing.
func (b *TokenBucket) refill() {
	now := b.clock()
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed.Seconds() * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.last = now
}
