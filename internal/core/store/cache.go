package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetCached returns the cached payload for a key when it is still
// fresh. An expired or missing entry reads as absent, not as an error.
func (s *Store) GetCached(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.DB == nil {
		return nil, false, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("cache key is required")
	}

	var data []byte
	row := s.DB.QueryRowContext(ctx, `
		SELECT data
		FROM mod_cache
		WHERE key = ? AND expires_at > ?
	`, key, s.now().Unix())

	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("fetch cached entry: %w", err)
	}

	return data, true, nil
}

// SetCached stores a payload with a TTL, replacing any previous entry
// for the key. A non-positive TTL is a no-op.
func (s *Store) SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if ttl <= 0 {
		return nil
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key is required")
	}

	now := s.now()
	expires := now.Add(ttl)

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO mod_cache (key, data, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, data, now.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("store cached entry: %w", err)
	}

	return nil
}

// PruneExpired deletes cache rows whose TTL has elapsed and returns
// the number removed.
func (s *Store) PruneExpired(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		DELETE FROM mod_cache WHERE expires_at <= ?
	`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return pruned, nil
}
