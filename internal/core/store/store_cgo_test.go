//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modhearth/modhearth/internal/config"
	"github.com/modhearth/modhearth/internal/core"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenMemoryStore(t *testing.T) {
	db := openMemoryStore(t)
	require.Equal(t, "libsql", db.Driver())
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	data, ok, err := db.GetCached(ctx, "mod:42")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, data)

	require.NoError(t, db.SetCached(ctx, "mod:42", []byte(`{"id":42}`), time.Hour))

	data, ok, err = db.GetCached(ctx, "mod:42")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"id":42}`, string(data))
}

func TestCacheExpiredEntryReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	db.Clock = func() time.Time { return now }

	require.NoError(t, db.SetCached(ctx, "search:abc", []byte(`{}`), time.Minute))

	now = now.Add(2 * time.Minute)
	_, ok, err := db.GetCached(ctx, "search:abc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheOverwriteReplacesEntry(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	require.NoError(t, db.SetCached(ctx, "key", []byte("old"), time.Hour))
	require.NoError(t, db.SetCached(ctx, "key", []byte("new"), time.Hour))

	data, ok, err := db.GetCached(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("new"), data)
}

func TestCacheZeroTTLIsNoop(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	require.NoError(t, db.SetCached(ctx, "key", []byte("x"), 0))

	_, ok, err := db.GetCached(ctx, "key")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPruneExpired(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	db.Clock = func() time.Time { return now }

	require.NoError(t, db.SetCached(ctx, "stale", []byte("a"), time.Minute))
	require.NoError(t, db.SetCached(ctx, "fresh", []byte("b"), time.Hour))

	now = now.Add(5 * time.Minute)
	pruned, err := db.PruneExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pruned)

	_, ok, err := db.GetCached(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestWarmingScheduleRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	schedules, err := db.ListWarmingSchedules(ctx)
	require.NoError(t, err)
	require.Empty(t, schedules)

	next := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	entry := &core.WarmingSchedule{
		Key:             "storage",
		CategoryID:      420,
		BasePriority:    6,
		DynamicPriority: 7.5,
		AnalyticsScore:  15,
		NextWarm:        next,
	}
	require.NoError(t, db.UpsertWarmingSchedule(ctx, entry))

	schedules, err = db.ListWarmingSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, "storage", schedules[0].Key)
	require.Equal(t, int64(420), schedules[0].CategoryID)
	require.Equal(t, 7.5, schedules[0].DynamicPriority)
	require.True(t, schedules[0].LastWarmed.IsZero(), "never-warmed entries keep a zero LastWarmed")
	require.Equal(t, next, schedules[0].NextWarm)

	// Upsert replaces the previous row.
	entry.LastWarmed = next.Add(time.Minute)
	entry.DynamicPriority = 9
	require.NoError(t, db.UpsertWarmingSchedule(ctx, entry))

	schedules, err = db.ListWarmingSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, 9.0, schedules[0].DynamicPriority)
	require.Equal(t, next.Add(time.Minute), schedules[0].LastWarmed)
}

func TestRateLimitStatusRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	observed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.RecordRateLimitStatus(ctx, &core.RateLimitStatus{
		Endpoint:   "/v1/mods/search",
		Remaining:  42,
		ResetAt:    observed.Add(time.Minute),
		ObservedAt: observed,
	}))

	// Replaces the previous snapshot for the endpoint.
	require.NoError(t, db.RecordRateLimitStatus(ctx, &core.RateLimitStatus{
		Endpoint:   "/v1/mods/search",
		Remaining:  41,
		ObservedAt: observed.Add(time.Second),
	}))

	statuses, err := db.ListRateLimitStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Equal(t, "/v1/mods/search", statuses[0].Endpoint)
	require.Equal(t, 41, statuses[0].Remaining)
	require.True(t, statuses[0].ResetAt.IsZero())
}

func TestRateLimitStatusRequiresEndpoint(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	require.Error(t, db.RecordRateLimitStatus(ctx, &core.RateLimitStatus{}))
}
