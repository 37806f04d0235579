package registry

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// RequestFunc performs one upstream call and returns the raw body.
type RequestFunc func(ctx context.Context) ([]byte, error)

// Coordinator deduplicates identical in-flight requests and queues
// excess work behind a concurrency cap. All callers sharing a key
// observe the same outcome; the key is evicted as soon as the
// underlying call completes, so a later call retries fresh.
type Coordinator struct {
	mu      sync.Mutex
	pending map[string]*call
	queue   []*call
	active  int
	max     int
	logger  *zap.Logger
}

type call struct {
	key  string
	ctx  context.Context
	fn   RequestFunc
	done chan struct{}
	body []byte
	err  error
}

// NewCoordinator returns a coordinator limited to maxConcurrent
// simultaneously executing requests.
func NewCoordinator(maxConcurrent int, logger *zap.Logger) *Coordinator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		pending: make(map[string]*call),
		max:     maxConcurrent,
		logger:  logger,
	}
}

// Do executes fn under the coordinator's dedup and concurrency rules.
// If another caller already submitted the same key, the caller waits on
// that call and shares its result, success or failure alike.
func (c *Coordinator) Do(ctx context.Context, key string, fn RequestFunc) ([]byte, error) {
	c.mu.Lock()
	if existing, ok := c.pending[key]; ok {
		c.mu.Unlock()
		<-existing.done
		return existing.body, existing.err
	}

	cl := &call{key: key, ctx: ctx, fn: fn, done: make(chan struct{})}
	c.pending[key] = cl
	if c.active < c.max {
		c.active++
		c.mu.Unlock()
		go c.run(cl)
	} else {
		c.queue = append(c.queue, cl)
		c.logger.Debug("request queued", zap.String("key", key), zap.Int("depth", len(c.queue)))
		c.mu.Unlock()
	}

	<-cl.done
	return cl.body, cl.err
}

func (c *Coordinator) run(cl *call) {
	cl.body, cl.err = cl.fn(cl.ctx)

	c.mu.Lock()
	delete(c.pending, cl.key)
	c.active--
	var next *call
	if len(c.queue) > 0 {
		next = c.queue[0]
		c.queue = c.queue[1:]
		c.active++
	}
	c.mu.Unlock()

	close(cl.done)
	if next != nil {
		go c.run(next)
	}
}

// Active reports the number of currently executing requests.
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// QueueDepth reports the number of requests waiting for capacity.
func (c *Coordinator) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// RequestKey derives the deterministic dedup key for a request.
// url.Values.Encode sorts parameters, so equal requests always map to
// the same key.
func RequestKey(method, path string, query url.Values) string {
	return fmt.Sprintf("%s %s?%s", method, path, query.Encode())
}

// CacheKey hashes a request key into a compact cache store key.
func CacheKey(prefix, requestKey string) string {
	sum := sha256.Sum256([]byte(requestKey))
	return fmt.Sprintf("%s:%x", prefix, sum[:12])
}
