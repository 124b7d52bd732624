package model

// SourceState identifies which upstream collaborator(s) back the collection.
type SourceState string

const (
	SourceNone     SourceState = "none"
	SourceLive     SourceState = "live"
	SourceLocal    SourceState = "local"
	SourceCombined SourceState = "combined"
)

// SortField is one of the fields the sort stage accepts.
type SortField string

const (
	SortFieldRating SortField = FieldFinalRating
	SortFieldPrice  SortField = FieldPrice
)

// SortOrder is the direction of the sort stage.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// Theme is a per-session presentation preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// RelevanceTarget is the point the relevance filter ranks listings against.
type RelevanceTarget struct {
	Rating     float64 `json:"target_rating"`
	Price      float64 `json:"target_price"`
	K          int     `json:"k"`
	PriceScale float64 `json:"price_scale,omitempty"` // 0 means the default scale of 500
}

// View holds the user-controlled inputs of the ranking pipeline.
type View struct {
	Query     string          `json:"query"`
	SortField SortField       `json:"sort_field"`
	SortOrder SortOrder       `json:"sort_order"`
	Target    RelevanceTarget `json:"relevance"`
	Theme     Theme           `json:"theme"`
}

// SourceSnapshot is a consistent copy of the source controller state.
type SourceSnapshot struct {
	Source      SourceState `json:"source"`
	FromCache   bool        `json:"from_cache"`
	Loading     bool        `json:"loading"`
	LoadingMore bool        `json:"loading_more"`
	Revision    uint64      `json:"revision"`
	Listings    []Listing   `json:"-"`
}

// ResultSet is what the presentation layer renders.
type ResultSet struct {
	SessionID   string      `json:"session_id"`
	Hotels      []Listing   `json:"hotels"`
	Count       int         `json:"count"`
	Total       int         `json:"total"` // size of the unfiltered collection
	Source      SourceState `json:"source"`
	FromCache   bool        `json:"from_cache"`
	Loading     bool        `json:"loading"`
	LoadingMore bool        `json:"loading_more"`
	CanLoadMore bool        `json:"can_load_more"`
	View        View        `json:"view"`
}
