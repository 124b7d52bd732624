package ranking

import (
	"strings"

	"github.com/gcbaptista/go-hotel-search/model"
)

// TextFilter keeps listings whose name contains query, case-insensitively.
// An empty query passes every listing through, including those without a name.
func TextFilter(listings []model.Listing, query string) []model.Listing {
	if query == "" {
		out := make([]model.Listing, len(listings))
		copy(out, listings)
		return out
	}

	needle := strings.ToLower(query)
	filtered := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		name, ok := l.GetName()
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(name), needle) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}
