package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/modhearth/modhearth/internal/core"
)

const (
	pathSearch     = "/v1/mods/search"
	pathMods       = "/v1/mods"
	pathCategories = "/v1/categories"
)

// CacheStore is the key-value collaborator holding search results and
// individual mod records with TTL semantics. Entries are written whole;
// an expired entry reads as absent.
type CacheStore interface {
	GetCached(ctx context.Context, key string) ([]byte, bool, error)
	SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Client is the mod-registry access layer facade. All reads go
// cache-first; fetches are deduplicated and capped by the coordinator
// and rate-limited by the transport's token bucket.
type Client struct {
	Exec   *Executor
	Coord  *Coordinator
	Cache  CacheStore
	Logger *zap.Logger

	GameID      int64
	SearchTTL   time.Duration
	ModTTL      time.Duration
	CategoryTTL time.Duration
}

type modEnvelope struct {
	Data core.Mod `json:"data"`
}

type categoriesEnvelope struct {
	Data []core.Category `json:"data"`
}

type searchEnvelope struct {
	Data       []core.Mod `json:"data"`
	Pagination struct {
		Index       int `json:"index"`
		ResultCount int `json:"resultCount"`
		TotalCount  int `json:"totalCount"`
	} `json:"pagination"`
}

// get runs a GET through the coordinator so identical concurrent
// requests share one upstream call.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	key := RequestKey("GET", path, query)
	return c.Coord.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.Exec.Perform(ctx, "GET", path, query)
	})
}

// GetMod returns a single mod record, serving a fresh cache entry when
// one exists.
func (c *Client) GetMod(ctx context.Context, id int64) (*core.Mod, error) {
	cacheKey := modCacheKey(id)
	if data, ok, err := c.Cache.GetCached(ctx, cacheKey); err != nil {
		c.logger().Warn("mod cache lookup failed", zap.Int64("mod_id", id), zap.Error(err))
	} else if ok {
		var mod core.Mod
		if err := json.Unmarshal(data, &mod); err != nil {
			c.logger().Warn("mod cache decode failed", zap.Int64("mod_id", id), zap.Error(err))
		} else {
			return &mod, nil
		}
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/%d", pathMods, id), url.Values{})
	if err != nil {
		return nil, err
	}

	var envelope modEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &APIError{StatusCode: 200, Message: "malformed mod envelope"}
	}

	c.writeCache(ctx, cacheKey, envelope.Data, c.ModTTL)
	return &envelope.Data, nil
}

// HasCachedMod reports whether a fresh cache entry exists for a mod.
func (c *Client) HasCachedMod(ctx context.Context, id int64) bool {
	_, ok, err := c.Cache.GetCached(ctx, modCacheKey(id))
	return err == nil && ok
}

// GetCategories lists the registry's categories for the configured game.
func (c *Client) GetCategories(ctx context.Context) ([]core.Category, error) {
	query := url.Values{}
	query.Set("gameId", fmt.Sprintf("%d", c.GameID))

	cacheKey := CacheKey("categories", RequestKey("GET", pathCategories, query))
	if data, ok, err := c.Cache.GetCached(ctx, cacheKey); err != nil {
		c.logger().Warn("category cache lookup failed", zap.Error(err))
	} else if ok {
		var categories []core.Category
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
	}

	body, err := c.get(ctx, pathCategories, query)
	if err != nil {
		return nil, err
	}

	var envelope categoriesEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &APIError{StatusCode: 200, Message: "malformed categories envelope"}
	}

	c.writeCache(ctx, cacheKey, envelope.Data, c.CategoryTTL)
	return envelope.Data, nil
}

func (c *Client) writeCache(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.Cache.SetCached(ctx, key, data, ttl); err != nil {
		c.logger().Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Client) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func modCacheKey(id int64) string {
	return fmt.Sprintf("mod:%d", id)
}
