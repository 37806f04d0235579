package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/modhearth/modhearth/internal/core"
)

// SearchMods runs the primary search and falls back through alternate
// strategies when it yields nothing. Absence of results is not an
// error: if every strategy comes back empty, the caller receives an
// empty SearchResult.
func (c *Client) SearchMods(ctx context.Context, q SearchQuery) (*core.SearchResult, error) {
	return c.searchMods(ctx, q, true)
}

// WarmCategory refreshes the cached search result for a category.
// Warming always refetches and overwrites, even when the cached entry
// is still fresh.
func (c *Client) WarmCategory(ctx context.Context, categoryID int64) error {
	q := SearchQuery{
		CategoryID: categoryID,
		Sort:       core.SortFieldPopularity,
		Order:      core.SortDesc,
		PageSize:   20,
		Page:       1,
	}
	_, err := c.searchMods(ctx, q, false)
	return err
}

func (c *Client) searchMods(ctx context.Context, q SearchQuery, useCache bool) (*core.SearchResult, error) {
	q = q.clamp()
	cacheKey := searchCacheKey(q)

	if useCache {
		if data, ok, err := c.Cache.GetCached(ctx, cacheKey); err != nil {
			c.logger().Warn("search cache lookup failed", zap.Error(err))
		} else if ok {
			var cached core.SearchResult
			if err := json.Unmarshal(data, &cached); err != nil {
				c.logger().Warn("search cache decode failed", zap.Error(err))
			} else {
				cached.FromCache = true
				return &cached, nil
			}
		}
	}

	// Category-label text trips an upstream zero-result quirk, so the
	// free-text filter is omitted up front for such terms.
	includeText := !isCategoryLikeTerm(q.Text)
	result, err := c.runSearch(ctx, q.params(c.GameID, includeText))
	if err != nil {
		return nil, err
	}

	if len(result.Items) == 0 {
		result, err = c.searchFallback(ctx, q)
		if err != nil {
			return nil, err
		}
	}

	if result == nil {
		result = &core.SearchResult{Items: []core.Mod{}}
	}

	c.writeCache(ctx, cacheKey, result, c.SearchTTL)
	return result, nil
}

// searchFallback tries the alternate strategies in fixed order; the
// first non-empty result wins.
func (c *Client) searchFallback(ctx context.Context, q SearchQuery) (*core.SearchResult, error) {
	type strategy struct {
		name   string
		params url.Values
	}

	strategies := make([]strategy, 0, 4)

	// 1. Category-only search, free text dropped.
	if q.CategoryID > 0 {
		strategies = append(strategies, strategy{"category-only", q.params(c.GameID, false)})
	}

	// 2. Popularity-sorted, no category, no text.
	broad := q
	broad.CategoryID = 0
	broad.Sort = core.SortFieldPopularity
	broad.Order = core.SortDesc
	strategies = append(strategies, strategy{"popularity", broad.params(c.GameID, false)})

	// 3. Popularity-sorted within the category.
	if q.CategoryID > 0 {
		scoped := q
		scoped.Sort = core.SortFieldPopularity
		scoped.Order = core.SortDesc
		strategies = append(strategies, strategy{"category-popularity", scoped.params(c.GameID, false)})
	}

	// 4. Simplified free text.
	if simpler := simplifyText(q.Text); simpler != "" {
		simplified := q
		simplified.Text = simpler
		strategies = append(strategies, strategy{"simplified-text", simplified.params(c.GameID, true)})
	}

	for _, s := range strategies {
		result, err := c.runSearch(ctx, s.params)
		if err != nil {
			return nil, err
		}
		if len(result.Items) > 0 {
			c.logger().Debug("search fallback produced results",
				zap.String("strategy", s.name),
				zap.Int("count", len(result.Items)))
			return result, nil
		}
	}

	return &core.SearchResult{Items: []core.Mod{}}, nil
}

// SearchComprehensive unions the direct search, a category-dropped
// broader search, and a popularity fallback, deduplicating by id and
// near-duplicate name, stopping once count entries are gathered. Used
// by batch and background callers.
func (c *Client) SearchComprehensive(ctx context.Context, text string, categoryID int64, count int) ([]core.Mod, error) {
	if count < 1 {
		count = 20
	}

	passes := []SearchQuery{
		{Text: text, CategoryID: categoryID, PageSize: count, Page: 1},
		{Text: text, PageSize: count, Page: 1},
		{Sort: core.SortFieldPopularity, Order: core.SortDesc, CategoryID: categoryID, PageSize: count, Page: 1},
	}

	collected := make([]core.Mod, 0, count)
	for _, pass := range passes {
		if len(collected) >= count {
			break
		}

		pass = pass.clamp()
		includeText := !isCategoryLikeTerm(pass.Text)
		result, err := c.runSearch(ctx, pass.params(c.GameID, includeText))
		if err != nil {
			var rateErr *RateLimitError
			if errors.As(err, &rateErr) && len(collected) > 0 {
				// Rate limited mid-union: stop this cycle, keep what we have.
				c.logger().Warn("comprehensive search rate limited", zap.Duration("retry_after", rateErr.RetryAfter))
				break
			}
			return nil, err
		}

		collected = DeduplicateMods(append(collected, result.Items...))
	}

	if len(collected) > count {
		collected = collected[:count]
	}
	return collected, nil
}

// runSearch executes one search request. A 404 reads as "nothing
// matched", not as a failure.
func (c *Client) runSearch(ctx context.Context, params url.Values) (*core.SearchResult, error) {
	body, err := c.get(ctx, pathSearch, params)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return &core.SearchResult{Items: []core.Mod{}}, nil
		}
		return nil, err
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &APIError{StatusCode: 200, Message: "malformed search envelope"}
	}

	items := envelope.Data
	if items == nil {
		items = []core.Mod{}
	}

	return &core.SearchResult{
		Items:      items,
		TotalCount: envelope.Pagination.TotalCount,
		HasMore:    envelope.Pagination.Index+envelope.Pagination.ResultCount < envelope.Pagination.TotalCount,
	}, nil
}

// searchCacheKey folds every search input into the cache key so
// distinct queries never collide.
func searchCacheKey(q SearchQuery) string {
	raw := fmt.Sprintf("text=%s&cat=%d&sort=%d&order=%s&size=%d&page=%d",
		q.Text, q.CategoryID, q.Sort, q.Order, q.PageSize, q.Page)
	return CacheKey("search", raw)
}
