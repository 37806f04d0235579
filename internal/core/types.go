package core

import (
	"fmt"
	"strings"
	"time"
)

// SortField is the upstream registry's numeric sort-field code.
type SortField int

const (
	SortFieldName       SortField = 1
	SortFieldPopularity SortField = 2
	SortFieldSize       SortField = 3
	SortFieldUpdated    SortField = 4
	SortFieldDownloads  SortField = 6
)

// ParseSortField maps a human-readable sort name to its upstream code.
func ParseSortField(value string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "popularity":
		return SortFieldPopularity, nil
	case "name":
		return SortFieldName, nil
	case "size":
		return SortFieldSize, nil
	case "updated":
		return SortFieldUpdated, nil
	case "downloads":
		return SortFieldDownloads, nil
	default:
		return 0, fmt.Errorf("unsupported sort field: %s", value)
	}
}

// SortOrder is the upstream sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder normalizes a sort order string.
func ParseSortOrder(value string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "desc", "descending":
		return SortDesc, nil
	case "asc", "ascending":
		return SortAsc, nil
	default:
		return "", fmt.Errorf("unsupported sort order: %s", value)
	}
}

// ModAuthor identifies a mod author as reported by the registry.
type ModAuthor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a registry mod category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Mod is a single catalog entry, modeled only as far as the access
// layer needs it.
type Mod struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Slug          string      `json:"slug,omitempty"`
	Summary       string      `json:"summary,omitempty"`
	DownloadCount int64       `json:"downloadCount"`
	Categories    []Category  `json:"categories,omitempty"`
	Authors       []ModAuthor `json:"authors,omitempty"`
	DateUpdated   time.Time   `json:"dateModified,omitzero"`
}

// SearchResult is the outcome of a search, possibly served from cache.
type SearchResult struct {
	Items      []Mod `json:"items"`
	TotalCount int   `json:"totalCount"`
	HasMore    bool  `json:"hasMore"`
	FromCache  bool  `json:"fromCache"`
}

// RateLimitStatus is the advisory remaining/reset snapshot taken from
// upstream response headers. It never gates requests.
type RateLimitStatus struct {
	Endpoint   string    `json:"endpoint"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	ObservedAt time.Time `json:"observed_at"`
}

// WarmingSchedule tracks when a category's cache entries were last
// refreshed and when they are next due.
type WarmingSchedule struct {
	Key             string    `json:"key"`
	CategoryID      int64     `json:"category_id"`
	BasePriority    float64   `json:"base_priority"`
	DynamicPriority float64   `json:"dynamic_priority"`
	AnalyticsScore  float64   `json:"analytics_score"`
	LastWarmed      time.Time `json:"last_warmed"`
	NextWarm        time.Time `json:"next_warm"`
}
