package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/modhearth/modhearth/internal/config"
	"github.com/modhearth/modhearth/internal/core/registry"
	"github.com/modhearth/modhearth/internal/core/store"
)

// openStore opens and migrates the database per the loaded config.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// buildClient wires the full access layer: credentials, token bucket,
// coordinator, transport, and the caching client on top.
func buildClient(cfg *config.Config, db *store.Store, logger *zap.Logger) (*registry.Client, error) {
	reg := cfg.Registry
	if reg.BaseURL == "" {
		return nil, fmt.Errorf("registry base url is required")
	}

	exec := &registry.Executor{
		BaseURL: reg.BaseURL,
		Credentials: &registry.CredentialSource{
			ConfiguredKey: reg.APIKey,
		},
		ClientID:    reg.ClientID,
		Limiter:     registry.NewTokenBucket(reg.BucketCapacity, reg.RefillPerSecond),
		Status:      db,
		Logger:      logger,
		Timeout:     reg.Timeout,
		MaxRetries:  reg.MaxRetries,
		BackoffBase: reg.BackoffBase,
	}

	return &registry.Client{
		Exec:        exec,
		Coord:       registry.NewCoordinator(reg.MaxConcurrent, logger),
		Cache:       db,
		Logger:      logger,
		GameID:      reg.GameID,
		SearchTTL:   cfg.Cache.SearchTTL,
		ModTTL:      cfg.Cache.ModTTL,
		CategoryTTL: cfg.Cache.CategoryTTL,
	}, nil
}
