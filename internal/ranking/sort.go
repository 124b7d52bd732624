package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gcbaptista/go-hotel-search/model"
)

// ParseSortField validates a sort field name.
func ParseSortField(field string) (model.SortField, error) {
	switch model.SortField(field) {
	case model.SortFieldRating, model.SortFieldPrice:
		return model.SortField(field), nil
	}
	return "", fmt.Errorf("invalid sort field '%s' (must be '%s' or '%s')", field, model.SortFieldRating, model.SortFieldPrice)
}

// ParseSortOrder validates a sort direction.
func ParseSortOrder(order string) (model.SortOrder, error) {
	switch model.SortOrder(order) {
	case model.SortOrderAsc, model.SortOrderDesc:
		return model.SortOrder(order), nil
	}
	return "", fmt.Errorf("invalid sort order '%s' (must be 'asc' or 'desc')", order)
}

type sortKind int

const (
	sortKindMissing sortKind = iota
	sortKindNumber
	sortKindText
)

// sortValue is a field value normalized for comparison.
type sortValue struct {
	kind sortKind
	num  float64
	text string
}

func sortValueFor(l model.Listing, field model.SortField) sortValue {
	raw := l[string(field)]
	if field == model.SortFieldPrice {
		return sortValue{kind: sortKindNumber, num: lenientNumber(raw)}
	}
	if f, ok := toNumber(raw); ok {
		return sortValue{kind: sortKindNumber, num: f}
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
		return sortValue{kind: sortKindText, text: strings.ToLower(s)}
	}
	return sortValue{kind: sortKindMissing}
}

// compareSortValues is a three-way comparison: missing < numbers < text.
func compareSortValues(a, b sortValue) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case sortKindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
	case sortKindText:
		return strings.Compare(a.text, b.text)
	}
	return 0
}

// SortStage returns a new slice ordered by field and order. Equal values keep
// their input order for both directions.
func SortStage(listings []model.Listing, field model.SortField, order model.SortOrder) []model.Listing {
	type keyedListing struct {
		listing model.Listing
		key     sortValue
	}

	keyed := make([]keyedListing, len(listings))
	for i, l := range listings {
		keyed[i] = keyedListing{listing: l, key: sortValueFor(l, field)}
	}

	desc := order == model.SortOrderDesc
	sort.SliceStable(keyed, func(i, j int) bool {
		cmp := compareSortValues(keyed[i].key, keyed[j].key)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	sorted := make([]model.Listing, len(keyed))
	for i, k := range keyed {
		sorted[i] = k.listing
	}
	return sorted
}
