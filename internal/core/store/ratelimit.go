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

// RecordRateLimitStatus persists the latest advisory rate-limit
// snapshot observed for an endpoint. Snapshots are informational only;
// nothing reads them on the request path.
func (s *Store) RecordRateLimitStatus(ctx context.Context, status *core.RateLimitStatus) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if status == nil || strings.TrimSpace(status.Endpoint) == "" {
		return errors.New("rate limit endpoint is required")
	}

	var resetAt sql.NullInt64
	if !status.ResetAt.IsZero() {
		resetAt = sql.NullInt64{Int64: status.ResetAt.Unix(), Valid: true}
	}

	observed := status.ObservedAt
	if observed.IsZero() {
		observed = s.now()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO rate_limit_status (endpoint, remaining, reset_at, observed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			remaining = excluded.remaining,
			reset_at = excluded.reset_at,
			observed_at = excluded.observed_at
	`, status.Endpoint, status.Remaining, resetAt, observed.Unix())
	if err != nil {
		return fmt.Errorf("store rate limit status: %w", err)
	}

	return nil
}

// ListRateLimitStatuses returns the latest snapshot per endpoint.
func (s *Store) ListRateLimitStatuses(ctx context.Context) ([]*core.RateLimitStatus, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT endpoint, remaining, reset_at, observed_at
		FROM rate_limit_status
		ORDER BY endpoint
	`)
	if err != nil {
		return nil, fmt.Errorf("list rate limit statuses: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var statuses []*core.RateLimitStatus
	for rows.Next() {
		var (
			status     core.RateLimitStatus
			resetAt    sql.NullInt64
			observedAt int64
		)
		if err := rows.Scan(&status.Endpoint, &status.Remaining, &resetAt, &observedAt); err != nil {
			return nil, fmt.Errorf("scan rate limit status: %w", err)
		}
		if resetAt.Valid {
			status.ResetAt = time.Unix(resetAt.Int64, 0).UTC()
		}
		status.ObservedAt = time.Unix(observedAt, 0).UTC()
		statuses = append(statuses, &status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate limit statuses: %w", err)
	}

	return statuses, nil
}
