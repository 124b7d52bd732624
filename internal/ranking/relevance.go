package ranking

import (
	"math"
	"sort"

	"github.com/gcbaptista/go-hotel-search/model"
)

// DefaultPriceScale is the price difference weighted the same as one full rating point.
const DefaultPriceScale = 500.0

// scoredListing carries the transient distance next to a listing so the
// listing itself is never annotated.
type scoredListing struct {
	listing  model.Listing
	distance float64
}

// Distance returns the relevance distance of a listing from the target point.
// The second return value is false for incomplete listings.
func Distance(l model.Listing, target model.RelevanceTarget) (float64, bool) {
	rating, ok := EffectiveRating(l)
	if !ok {
		return 0, false
	}
	price, ok := EffectivePrice(l)
	if !ok {
		return 0, false
	}

	scale := target.PriceScale
	if scale <= 0 {
		scale = DefaultPriceScale
	}

	dr := rating - target.Rating
	dp := (price - target.Price) / scale
	return math.Sqrt(dr*dr + dp*dp), true
}

// RelevanceFilter returns the K complete listings closest to the target, in
// increasing distance, followed by every incomplete listing in input order.
// Ties keep input order. The input slice and its records are not modified.
func RelevanceFilter(listings []model.Listing, target model.RelevanceTarget) []model.Listing {
	if len(listings) == 0 {
		return []model.Listing{}
	}

	scored := make([]scoredListing, 0, len(listings))
	incomplete := make([]model.Listing, 0)

	for _, l := range listings {
		d, ok := Distance(l, target)
		if !ok {
			incomplete = append(incomplete, l)
			continue
		}
		scored = append(scored, scoredListing{listing: l, distance: d})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].distance < scored[j].distance
	})

	k := target.K
	if k < 0 {
		k = 0
	}
	if k > len(scored) {
		k = len(scored)
	}

	result := make([]model.Listing, 0, k+len(incomplete))
	for _, s := range scored[:k] {
		result = append(result, s.listing)
	}
	return append(result, incomplete...)
}
