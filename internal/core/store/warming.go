package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modhearth/modhearth/internal/core"
)

// ListWarmingSchedules returns every persisted warming schedule.
func (s *Store) ListWarmingSchedules(ctx context.Context) ([]*core.WarmingSchedule, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT key, category_id, base_priority, dynamic_priority, analytics_score, last_warmed, next_warm
		FROM warming_schedule
	`)
	if err != nil {
		return nil, fmt.Errorf("list warming schedules: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var schedules []*core.WarmingSchedule
	for rows.Next() {
		var (
			entry      core.WarmingSchedule
			lastWarmed sql.NullInt64
			nextWarm   int64
		)
		if err := rows.Scan(&entry.Key, &entry.CategoryID, &entry.BasePriority,
			&entry.DynamicPriority, &entry.AnalyticsScore, &lastWarmed, &nextWarm); err != nil {
			return nil, fmt.Errorf("scan warming schedule: %w", err)
		}
		if lastWarmed.Valid {
			entry.LastWarmed = time.Unix(lastWarmed.Int64, 0).UTC()
		}
		entry.NextWarm = time.Unix(nextWarm, 0).UTC()
		schedules = append(schedules, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list warming schedules: %w", err)
	}

	return schedules, nil
}

// UpsertWarmingSchedule persists one warming schedule, replacing any
// previous row for the key.
func (s *Store) UpsertWarmingSchedule(ctx context.Context, schedule *core.WarmingSchedule) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if schedule == nil || strings.TrimSpace(schedule.Key) == "" {
		return errors.New("schedule key is required")
	}

	var lastWarmed sql.NullInt64
	if !schedule.LastWarmed.IsZero() {
		lastWarmed = sql.NullInt64{Int64: schedule.LastWarmed.Unix(), Valid: true}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO warming_schedule (key, category_id, base_priority, dynamic_priority, analytics_score, last_warmed, next_warm)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			category_id = excluded.category_id,
			base_priority = excluded.base_priority,
			dynamic_priority = excluded.dynamic_priority,
			analytics_score = excluded.analytics_score,
			last_warmed = excluded.last_warmed,
			next_warm = excluded.next_warm
	`, schedule.Key, schedule.CategoryID, schedule.BasePriority, schedule.DynamicPriority,
		schedule.AnalyticsScore, lastWarmed, schedule.NextWarm.Unix())
	if err != nil {
		return fmt.Errorf("store warming schedule: %w", err)
	}

	return nil
}
