package registry

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/modhearth/modhearth/internal/core"
)

const (
	// upstreamMaxPageSize is the registry's documented page size cap.
	upstreamMaxPageSize = 50

	// maxPageSize stays at a 90% margin under the documented cap.
	maxPageSize = upstreamMaxPageSize * 9 / 10

	// maxResultWindow is the registry's maximum addressable total-results
	// window; index + pageSize must never exceed it.
	maxResultWindow = 10000
)

// SearchQuery holds the caller-facing search inputs. Page is 1-based;
// the upstream offset index is derived from it.
type SearchQuery struct {
	Text       string
	CategoryID int64
	Sort       core.SortField
	Order      core.SortOrder
	PageSize   int
	Page       int
}

// clamp bounds page size and page so the derived offset stays inside
// the upstream result window.
func (q SearchQuery) clamp() SearchQuery {
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if maxPage := maxResultWindow / q.PageSize; q.Page > maxPage {
		q.Page = maxPage
	}
	if q.Sort == 0 {
		q.Sort = core.SortFieldPopularity
	}
	if q.Order == "" {
		q.Order = core.SortDesc
	}
	return q
}

func (q SearchQuery) index() int {
	return (q.Page - 1) * q.PageSize
}

// params builds the upstream query. The free-text filter is dropped when
// includeText is false (category-label suppression) or the text is empty.
func (q SearchQuery) params(gameID int64, includeText bool) url.Values {
	values := url.Values{}
	values.Set("gameId", strconv.FormatInt(gameID, 10))
	if text := strings.TrimSpace(q.Text); includeText && text != "" {
		values.Set("searchFilter", text)
	}
	if q.CategoryID > 0 {
		values.Set("categoryId", strconv.FormatInt(q.CategoryID, 10))
	}
	values.Set("sortField", strconv.Itoa(int(q.Sort)))
	values.Set("sortOrder", string(q.Order))
	values.Set("pageSize", strconv.Itoa(q.PageSize))
	values.Set("index", strconv.Itoa(q.index()))
	return values
}

// categoryLikeTerms are free-text queries that match category labels.
// The upstream quirks out and returns zero results when such a term is
// sent as a text filter, so the filter is omitted entirely.
var categoryLikeTerms = map[string]struct{}{
	"adventure":      {},
	"automation":     {},
	"combat":         {},
	"decoration":     {},
	"exploration":    {},
	"farming":        {},
	"library":        {},
	"magic":          {},
	"overhaul":       {},
	"storage":        {},
	"technology":     {},
	"transportation": {},
	"utility":        {},
	"worldgen":       {},
}

func isCategoryLikeTerm(text string) bool {
	_, ok := categoryLikeTerms[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// simplerTerms maps known complex search terms to synonyms the upstream
// matches more reliably.
var simplerTerms = map[string]string{
	"configuration":             "config",
	"inventory management":      "inventory",
	"modification":              "mod",
	"multiplayer compatibility": "multiplayer",
	"optimization":              "performance",
	"performance optimization":  "performance",
	"quality of life":           "qol",
	"user interface":            "ui",
}

// simplifyText returns a reduced form of a query for the last-resort
// fallback: a known synonym when one exists, otherwise the first word of
// queries longer than two words. Returns "" when no simplification
// applies.
func simplifyText(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return ""
	}
	if simpler, ok := simplerTerms[normalized]; ok {
		return simpler
	}
	words := strings.Fields(normalized)
	if len(words) > 2 {
		return words[0]
	}
	return ""
}
