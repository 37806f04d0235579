package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modhearth/modhearth/internal/core"
)

const (
	// DefaultSweepInterval is the cadence of the due-category sweep.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultAnalyticsInterval is the slower cadence of the priority
	// recompute job.
	DefaultAnalyticsInterval = 15 * time.Minute

	// DefaultWarmTopN caps how many due categories a single sweep warms.
	DefaultWarmTopN = 5

	// DefaultItemDelay spaces sequential warm fetches so a sweep does
	// not burst the token bucket.
	DefaultItemDelay = 500 * time.Millisecond

	// analyticsBoostCap bounds the analytics-derived priority boost.
	analyticsBoostCap = 5

	// analyticsBoostDivisor scales raw analytics scores into boost.
	analyticsBoostDivisor = 10

	// priorityJumpThreshold pulls nextWarm forward to now when a
	// recompute raises dynamic priority by at least this much.
	priorityJumpThreshold = 2
)

// CategoryWarmer refreshes the cache for one category.
type CategoryWarmer interface {
	WarmCategory(ctx context.Context, categoryID int64) error
}

// ScheduleStore persists warming schedules across restarts.
type ScheduleStore interface {
	ListWarmingSchedules(ctx context.Context) ([]*core.WarmingSchedule, error)
	UpsertWarmingSchedule(ctx context.Context, schedule *core.WarmingSchedule) error
}

// AnalyticsSource supplies recent popularity/trend scores per category
// key. Optional; without it, dynamic priority equals base priority.
type AnalyticsSource interface {
	CategoryScores(ctx context.Context) (map[string]float64, error)
}

// Pruner removes expired cache rows. Optional housekeeping hook.
type Pruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// Warmer proactively refreshes high-priority cache entries on a
// priority-weighted schedule. Only one sweep runs at a time; a tick
// that lands during a sweep is skipped, not queued.
type Warmer struct {
	Client    CategoryWarmer
	Schedules ScheduleStore
	Analytics AnalyticsSource
	Cache     Pruner
	Logger    *zap.Logger

	SweepInterval     time.Duration
	AnalyticsInterval time.Duration
	TopN              int
	ItemDelay         time.Duration

	Clock func() time.Time
	Sleep func(time.Duration)

	mu       sync.Mutex
	entries  map[string]*core.WarmingSchedule
	running  bool
	sweeping bool
	stop     chan struct{}
	done     chan struct{}
}

// Register adds a category to the warming schedule. A newly registered
// category is due immediately.
func (w *Warmer) Register(key string, categoryID int64, basePriority float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.entries == nil {
		w.entries = make(map[string]*core.WarmingSchedule)
	}
	if _, ok := w.entries[key]; ok {
		return
	}
	w.entries[key] = &core.WarmingSchedule{
		Key:             key,
		CategoryID:      categoryID,
		BasePriority:    basePriority,
		DynamicPriority: basePriority,
		NextWarm:        w.now(),
	}
}

// Start launches the sweep and analytics timers. Starting an already
// running warmer is a no-op warning.
func (w *Warmer) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger().Warn("cache warming already running")
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	stop, done := w.stop, w.done
	w.mu.Unlock()

	w.LoadSchedules(ctx)

	go w.run(ctx, stop, done)
	w.logger().Info("cache warming started",
		zap.Duration("sweep_interval", w.sweepInterval()),
		zap.Duration("analytics_interval", w.analyticsInterval()))
}

// Stop halts the timers and waits for the loop to exit. Stopping a
// stopped warmer is a silent no-op.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop, done := w.stop, w.done
	w.mu.Unlock()

	close(stop)
	<-done
	w.logger().Info("cache warming stopped")
}

// Running reports whether the warmer's timers are active.
func (w *Warmer) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Warmer) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	sweep := time.NewTicker(w.sweepInterval())
	analytics := time.NewTicker(w.analyticsInterval())
	defer sweep.Stop()
	defer analytics.Stop()

	for {
		select {
		case <-stop:
			return
		case <-sweep.C:
			w.Sweep(ctx)
		case <-analytics.C:
			w.RecomputePriorities(ctx)
		}
	}
}

// Sweep warms the top-N due categories by dynamic priority, highest
// first, sequentially. Returns the number of categories warmed; -1 when
// skipped because another sweep is still in progress.
func (w *Warmer) Sweep(ctx context.Context) int {
	w.mu.Lock()
	if w.sweeping {
		w.mu.Unlock()
		w.logger().Debug("warming sweep already in progress, skipping tick")
		return -1
	}
	w.sweeping = true
	// Order and cap while the lock is held; RecomputePriorities mutates
	// the same entries under it.
	due := w.dueLocked()
	sort.Slice(due, func(i, j int) bool {
		return due[i].DynamicPriority > due[j].DynamicPriority
	})
	if topN := w.topN(); len(due) > topN {
		due = due[:topN]
	}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.sweeping = false
		w.mu.Unlock()
	}()

	if w.Cache != nil {
		if pruned, err := w.Cache.PruneExpired(ctx); err != nil {
			w.logger().Warn("cache prune failed", zap.Error(err))
		} else if pruned > 0 {
			w.logger().Debug("pruned expired cache entries", zap.Int64("count", pruned))
		}
	}

	if len(due) == 0 {
		return 0
	}

	warmed := 0
	for i, entry := range due {
		if i > 0 {
			w.doSleep(w.itemDelay())
		}

		if err := w.Client.WarmCategory(ctx, entry.CategoryID); err != nil {
			// Background failures are logged, never surfaced. A rate
			// limit ends the whole cycle.
			if _, ok := err.(*RateLimitError); ok {
				w.logger().Warn("warming rate limited, ending sweep", zap.String("key", entry.Key))
				break
			}
			w.logger().Warn("warming fetch failed", zap.String("key", entry.Key), zap.Error(err))
			continue
		}

		now := w.now()
		w.mu.Lock()
		entry.LastWarmed = now
		entry.NextWarm = now.Add(intervalForPriority(entry.DynamicPriority))
		w.mu.Unlock()
		w.persist(ctx, entry)
		warmed++
	}

	return warmed
}

// RecomputePriorities refreshes dynamic priorities from analytics.
// It never fetches; it only adjusts future scheduling, except that a
// large upward jump pulls the next warm forward to now.
func (w *Warmer) RecomputePriorities(ctx context.Context) {
	if w.Analytics == nil {
		return
	}

	scores, err := w.Analytics.CategoryScores(ctx)
	if err != nil {
		w.logger().Warn("analytics fetch failed", zap.Error(err))
		return
	}

	now := w.now()
	w.mu.Lock()
	changed := make([]*core.WarmingSchedule, 0, len(w.entries))
	for key, entry := range w.entries {
		score := scores[key]
		boost := score / analyticsBoostDivisor
		if boost > analyticsBoostCap {
			boost = analyticsBoostCap
		}

		next := entry.BasePriority + boost
		if next-entry.DynamicPriority >= priorityJumpThreshold {
			entry.NextWarm = now
		}
		if next != entry.DynamicPriority || score != entry.AnalyticsScore {
			entry.DynamicPriority = next
			entry.AnalyticsScore = score
			changed = append(changed, entry)
		}
	}
	w.mu.Unlock()

	for _, entry := range changed {
		w.persist(ctx, entry)
	}
}

// Schedule returns a copy of the schedule for a key, if registered.
func (w *Warmer) Schedule(key string) (core.WarmingSchedule, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	entry, ok := w.entries[key]
	if !ok {
		return core.WarmingSchedule{}, false
	}
	return *entry, true
}

func (w *Warmer) dueLocked() []*core.WarmingSchedule {
	now := w.now()
	due := make([]*core.WarmingSchedule, 0, len(w.entries))
	for _, entry := range w.entries {
		if !entry.NextWarm.After(now) {
			due = append(due, entry)
		}
	}
	return due
}

// LoadSchedules merges persisted schedule state into the registered
// entries. Start calls it automatically; run-once callers invoke it
// before sweeping so they respect the schedule a long-running server
// has built up instead of resetting it.
func (w *Warmer) LoadSchedules(ctx context.Context) {
	if w.Schedules == nil {
		return
	}
	persisted, err := w.Schedules.ListWarmingSchedules(ctx)
	if err != nil {
		w.logger().Warn("loading warming schedules failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.entries == nil {
		w.entries = make(map[string]*core.WarmingSchedule)
	}
	for _, entry := range persisted {
		if existing, ok := w.entries[entry.Key]; ok {
			existing.LastWarmed = entry.LastWarmed
			existing.NextWarm = entry.NextWarm
			existing.DynamicPriority = entry.DynamicPriority
			existing.AnalyticsScore = entry.AnalyticsScore
			continue
		}
		w.entries[entry.Key] = entry
	}
}

func (w *Warmer) persist(ctx context.Context, entry *core.WarmingSchedule) {
	if w.Schedules == nil {
		return
	}
	w.mu.Lock()
	snapshot := *entry
	w.mu.Unlock()
	if err := w.Schedules.UpsertWarmingSchedule(ctx, &snapshot); err != nil {
		w.logger().Warn("persisting warming schedule failed", zap.String("key", snapshot.Key), zap.Error(err))
	}
}

// intervalForPriority maps priority bands to warm intervals: hotter
// categories refresh sooner.
func intervalForPriority(priority float64) time.Duration {
	switch {
	case priority >= 9:
		return 5 * time.Minute
	case priority >= 7:
		return 10 * time.Minute
	case priority >= 5:
		return 30 * time.Minute
	default:
		return time.Hour
	}
}

func (w *Warmer) sweepInterval() time.Duration {
	if w.SweepInterval > 0 {
		return w.SweepInterval
	}
	return DefaultSweepInterval
}

func (w *Warmer) analyticsInterval() time.Duration {
	if w.AnalyticsInterval > 0 {
		return w.AnalyticsInterval
	}
	return DefaultAnalyticsInterval
}

func (w *Warmer) topN() int {
	if w.TopN > 0 {
		return w.TopN
	}
	return DefaultWarmTopN
}

func (w *Warmer) itemDelay() time.Duration {
	if w.ItemDelay > 0 {
		return w.ItemDelay
	}
	return DefaultItemDelay
}

func (w *Warmer) now() time.Time {
	if w.Clock != nil {
		return w.Clock()
	}
	return time.Now().UTC()
}

func (w *Warmer) doSleep(d time.Duration) {
	if w.Sleep != nil {
		w.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (w *Warmer) logger() *zap.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return zap.NewNop()
}
