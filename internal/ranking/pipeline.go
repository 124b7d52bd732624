package ranking

import (
	"sync"

	"github.com/gcbaptista/go-hotel-search/model"
)

// Apply runs the full ranking pipeline over a collection:
// relevance filter (local source only), then text filter, then sort (skipped
// for local source only, whose order is fixed by the relevance filter).
func Apply(listings []model.Listing, source model.SourceState, view model.View) []model.Listing {
	working := listings
	if source == model.SourceLocal {
		working = RelevanceFilter(working, view.Target)
	}
	working = TextFilter(working, view.Query)
	if source == model.SourceLocal {
		return working
	}
	return SortStage(working, view.SortField, view.SortOrder)
}

type relevanceKey struct {
	revision uint64
	applied  bool
	target   model.RelevanceTarget
}

type textKey struct {
	relevance relevanceKey
	query     string
}

type sortKey struct {
	text  textKey
	skip  bool
	field model.SortField
	order model.SortOrder
}

// memo holds the last output of one stage and the inputs that produced it.
type memo[K comparable] struct {
	key   K
	valid bool
	out   []model.Listing
}

func (m *memo[K]) get(key K, compute func() []model.Listing) []model.Listing {
	if m.valid && m.key == key {
		return m.out
	}
	m.out = compute()
	m.key = key
	m.valid = true
	return m.out
}

// Pipeline is a memoized version of Apply. Each stage is recomputed only when
// the collection revision or that stage's own parameters change, so moving a
// sort control does not rerun the relevance filter. Output is identical to Apply.
type Pipeline struct {
	mu        sync.Mutex
	relevance memo[relevanceKey]
	text      memo[textKey]
	sorted    memo[sortKey]
}

// NewPipeline creates an empty memoized pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Run ranks listings. revision must change whenever the collection changes.
func (p *Pipeline) Run(listings []model.Listing, revision uint64, source model.SourceState, view model.View) []model.Listing {
	p.mu.Lock()
	defer p.mu.Unlock()

	local := source == model.SourceLocal

	rk := relevanceKey{revision: revision, applied: local}
	if local {
		rk.target = view.Target
	}
	relevant := p.relevance.get(rk, func() []model.Listing {
		if local {
			return RelevanceFilter(listings, view.Target)
		}
		return listings
	})

	tk := textKey{relevance: rk, query: view.Query}
	filtered := p.text.get(tk, func() []model.Listing {
		return TextFilter(relevant, view.Query)
	})

	sk := sortKey{text: tk, skip: local}
	if !local {
		sk.field = view.SortField
		sk.order = view.SortOrder
	}
	ordered := p.sorted.get(sk, func() []model.Listing {
		if local {
			return filtered
		}
		return SortStage(filtered, view.SortField, view.SortOrder)
	})

	out := make([]model.Listing, len(ordered))
	copy(out, ordered)
	return out
}
