package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modhearth/modhearth/internal/core"
)

func TestClampDefaults(t *testing.T) {
	q := SearchQuery{}.clamp()

	require.Equal(t, 20, q.PageSize)
	require.Equal(t, 1, q.Page)
	require.Equal(t, core.SortFieldPopularity, q.Sort)
	require.Equal(t, core.SortDesc, q.Order)
}

func TestClampBoundsPageSize(t *testing.T) {
	q := SearchQuery{PageSize: 500}.clamp()
	require.Equal(t, 45, q.PageSize, "page size must stay below the upstream cap with margin")

	q = SearchQuery{PageSize: -3}.clamp()
	require.Equal(t, 20, q.PageSize)
}

func TestClampKeepsOffsetInsideResultWindow(t *testing.T) {
	q := SearchQuery{PageSize: 45, Page: 100000}.clamp()

	require.LessOrEqual(t, q.index()+q.PageSize, maxResultWindow)
	require.Equal(t, maxResultWindow/45, q.Page)
}

func TestParamsEncodeUpstreamCodes(t *testing.T) {
	q := SearchQuery{
		Text:       "storage drawers",
		CategoryID: 420,
		Sort:       core.SortFieldDownloads,
		Order:      core.SortAsc,
		PageSize:   30,
		Page:       3,
	}

	values := q.params(432, true)
	require.Equal(t, "432", values.Get("gameId"))
	require.Equal(t, "storage drawers", values.Get("searchFilter"))
	require.Equal(t, "420", values.Get("categoryId"))
	require.Equal(t, "6", values.Get("sortField"))
	require.Equal(t, "asc", values.Get("sortOrder"))
	require.Equal(t, "30", values.Get("pageSize"))
	require.Equal(t, "60", values.Get("index"), "index is zero-based (page-1)*pageSize")
}

func TestParamsOmitTextWhenSuppressed(t *testing.T) {
	q := SearchQuery{Text: "overhaul", PageSize: 20, Page: 1, Sort: core.SortFieldPopularity, Order: core.SortDesc}

	values := q.params(432, false)
	require.Empty(t, values.Get("searchFilter"))

	values = q.params(432, true)
	require.Equal(t, "overhaul", values.Get("searchFilter"))
}

func TestIsCategoryLikeTerm(t *testing.T) {
	require.True(t, isCategoryLikeTerm("overhaul"))
	require.True(t, isCategoryLikeTerm("  Storage "))
	require.True(t, isCategoryLikeTerm("WORLDGEN"))
	require.False(t, isCategoryLikeTerm("storage drawers"))
	require.False(t, isCategoryLikeTerm(""))
}

func TestSimplifyText(t *testing.T) {
	require.Equal(t, "qol", simplifyText("Quality of Life"))
	require.Equal(t, "performance", simplifyText("optimization"))
	require.Equal(t, "better", simplifyText("better storage for villagers"))
	require.Equal(t, "", simplifyText("iron chests"), "two-word queries without a synonym are not simplified")
	require.Equal(t, "", simplifyText(""))
}
