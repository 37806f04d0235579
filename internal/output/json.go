package output

import (
	"encoding/json"

	"github.com/modhearth/modhearth/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// FormatSearch renders a search result as JSON.
func (f *JSONFormatter) FormatSearch(result *core.SearchResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

// FormatMod renders a single mod record as JSON.
func (f *JSONFormatter) FormatMod(mod *core.Mod) (string, error) {
	if mod == nil {
		return "", nil
	}
	return f.marshal(mod)
}

// FormatCategories renders the category list as JSON.
func (f *JSONFormatter) FormatCategories(categories []core.Category) (string, error) {
	return f.marshal(categories)
}

// FormatRateLimits renders rate-limit snapshots as JSON.
func (f *JSONFormatter) FormatRateLimits(statuses []*core.RateLimitStatus) (string, error) {
	return f.marshal(statuses)
}
