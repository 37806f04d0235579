package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/modhearth/modhearth/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatSearch renders a search result as a table.
func (f *TableFormatter) FormatSearch(result *core.SearchResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Name", "Downloads", "Categories", "Updated"})

	for _, mod := range result.Items {
		updated := ""
		if !mod.DateUpdated.IsZero() {
			updated = mod.DateUpdated.Format("2006-01-02")
		}
		t.AppendRow(table.Row{
			mod.ID,
			mod.Name,
			mod.DownloadCount,
			categoryNames(mod.Categories),
			updated,
		})
	}

	summary := fmt.Sprintf("%d of %d results", len(result.Items), result.TotalCount)
	if result.HasMore {
		summary += ", more available"
	}
	if result.FromCache {
		summary += " (cached)"
	}
	t.AppendFooter(table.Row{"", summary, "", "", ""})

	return t.Render(), nil
}

// FormatMod renders a single mod record as a table.
func (f *TableFormatter) FormatMod(mod *core.Mod) (string, error) {
	if mod == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{"ID", mod.ID})
	t.AppendRow(table.Row{"Name", mod.Name})
	if mod.Slug != "" {
		t.AppendRow(table.Row{"Slug", mod.Slug})
	}
	if mod.Summary != "" {
		t.AppendRow(table.Row{"Summary", mod.Summary})
	}
	t.AppendRow(table.Row{"Downloads", mod.DownloadCount})
	if names := authorNames(mod); names != "" {
		t.AppendRow(table.Row{"Authors", names})
	}
	if names := categoryNames(mod.Categories); names != "" {
		t.AppendRow(table.Row{"Categories", names})
	}
	if !mod.DateUpdated.IsZero() {
		t.AppendRow(table.Row{"Updated", mod.DateUpdated.Format("2006-01-02")})
	}

	return t.Render(), nil
}

// FormatCategories renders the category list as a table.
func (f *TableFormatter) FormatCategories(categories []core.Category) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Name", "Slug"})

	for _, category := range categories {
		t.AppendRow(table.Row{category.ID, category.Name, category.Slug})
	}

	return t.Render(), nil
}

// FormatRateLimits renders rate-limit snapshots as a table.
func (f *TableFormatter) FormatRateLimits(statuses []*core.RateLimitStatus) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Endpoint", "Remaining", "Resets", "Observed"})

	for _, status := range statuses {
		if status == nil {
			continue
		}
		remaining := "unknown"
		if status.Remaining >= 0 {
			remaining = fmt.Sprintf("%d", status.Remaining)
		}
		resets := ""
		if !status.ResetAt.IsZero() {
			resets = status.ResetAt.Format("15:04:05 MST")
		}
		t.AppendRow(table.Row{
			status.Endpoint,
			remaining,
			resets,
			status.ObservedAt.Format("15:04:05 MST"),
		})
	}

	return t.Render(), nil
}
