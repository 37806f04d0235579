package output

import (
	"fmt"
	"strings"

	"github.com/modhearth/modhearth/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formatter renders access-layer results for the CLI.
type Formatter interface {
	FormatSearch(result *core.SearchResult) (string, error)
	FormatMod(mod *core.Mod) (string, error)
	FormatCategories(categories []core.Category) (string, error)
	FormatRateLimits(statuses []*core.RateLimitStatus) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TableFormatter{}
	}
}

func authorNames(mod *core.Mod) string {
	names := make([]string, 0, len(mod.Authors))
	for _, author := range mod.Authors {
		if strings.TrimSpace(author.Name) == "" {
			continue
		}
		names = append(names, author.Name)
	}
	return strings.Join(names, ", ")
}

func categoryNames(categories []core.Category) string {
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		if strings.TrimSpace(category.Name) == "" {
			continue
		}
		names = append(names, category.Name)
	}
	return strings.Join(names, ", ")
}
