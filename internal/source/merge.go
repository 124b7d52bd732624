package source

import "github.com/gcbaptista/go-hotel-search/model"

// MergeListings appends incoming after existing, dropping any incoming listing
// whose identifier is already present. The first occurrence wins, including
// duplicates inside incoming itself. Listings without an identifier are always
// appended. It returns the merged collection and the number of listings added.
func MergeListings(existing, incoming []model.Listing) ([]model.Listing, int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]model.Listing, 0, len(existing)+len(incoming))

	for _, l := range existing {
		if id, ok := l.GetID(); ok {
			seen[id] = struct{}{}
		}
		merged = append(merged, l)
	}

	added := 0
	for _, l := range incoming {
		if id, ok := l.GetID(); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		merged = append(merged, l)
		added++
	}
	return merged, added
}
