package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS mod_cache (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_mod_cache_expires ON mod_cache(expires_at);`,
	`CREATE TABLE IF NOT EXISTS warming_schedule (
		key TEXT PRIMARY KEY,
		category_id INTEGER NOT NULL,
		base_priority REAL NOT NULL,
		dynamic_priority REAL NOT NULL,
		analytics_score REAL NOT NULL DEFAULT 0,
		last_warmed INTEGER,
		next_warm INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_warming_schedule_next ON warming_schedule(next_warm);`,
	`CREATE TABLE IF NOT EXISTS rate_limit_status (
		endpoint TEXT PRIMARY KEY,
		remaining INTEGER NOT NULL,
		reset_at INTEGER,
		observed_at INTEGER NOT NULL
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
