package registry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultFetchInterval is the cadence of the background fetch cycle.
	DefaultFetchInterval = 10 * time.Minute

	// DefaultFetchBatchSize caps upstream record fetches per cycle.
	DefaultFetchBatchSize = 10
)

// Fetcher is the background process that keeps individual mod records
// cached ahead of demand. Each cycle samples the popularity-sorted
// catalog and fetches records missing from the cache, capped per cycle
// so the candidate walk can never run unbounded against the limiter.
type Fetcher struct {
	Client *Client
	Logger *zap.Logger

	Interval  time.Duration
	BatchSize int

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// Start launches the fetch loop. Starting twice is a no-op warning.
func (f *Fetcher) Start(ctx context.Context) {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		f.logger().Warn("background fetching already running")
		return
	}
	f.running = true
	f.stop = make(chan struct{})
	f.done = make(chan struct{})
	stop, done := f.stop, f.done
	f.mu.Unlock()

	go f.run(ctx, stop, done)
	f.logger().Info("background fetching started", zap.Duration("interval", f.interval()))
}

// Stop halts the loop; stopping a stopped fetcher is a silent no-op.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	stop, done := f.stop, f.done
	f.mu.Unlock()

	close(stop)
	<-done
	f.logger().Info("background fetching stopped")
}

// Running reports whether the fetch loop is active.
func (f *Fetcher) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *Fetcher) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(f.interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single fetch cycle and returns how many records
// were fetched. Candidates come from a comprehensive search so catalog
// near-duplicates never spend two fetches on the same mod.
func (f *Fetcher) RunOnce(ctx context.Context) int {
	batch := f.batchSize()

	candidates, err := f.Client.SearchComprehensive(ctx, "", 0, batch*2)
	if err != nil {
		f.logger().Warn("background candidate search failed", zap.Error(err))
		return 0
	}

	fetched := 0
	for _, mod := range candidates {
		if fetched >= batch {
			break
		}
		if f.Client.HasCachedMod(ctx, mod.ID) {
			continue
		}
		if _, err := f.Client.GetMod(ctx, mod.ID); err != nil {
			if _, ok := err.(*RateLimitError); ok {
				f.logger().Warn("background fetching rate limited, ending cycle")
				break
			}
			f.logger().Warn("background mod fetch failed", zap.Int64("mod_id", mod.ID), zap.Error(err))
			continue
		}
		fetched++
	}

	return fetched
}

func (f *Fetcher) interval() time.Duration {
	if f.Interval > 0 {
		return f.Interval
	}
	return DefaultFetchInterval
}

func (f *Fetcher) batchSize() int {
	if f.BatchSize > 0 {
		return f.BatchSize
	}
	return DefaultFetchBatchSize
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return zap.NewNop()
}
