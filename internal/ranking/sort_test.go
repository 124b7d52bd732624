package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gcbaptista/go-hotel-search/model"
)

func TestSortStage_PriceCoercion(t *testing.T) {
	listings := []model.Listing{
		{"hotelId": "s200", "Price": "200"},
		{"hotelId": "n100", "Price": float64(100)},
		{"hotelId": "abc", "Price": "abc"},
	}

	asc := SortStage(listings, model.SortFieldPrice, model.SortOrderAsc)
	// unparseable coerces to 0 and sorts first on ascending
	assert.Equal(t, []string{"abc", "n100", "s200"}, ids(asc))

	desc := SortStage(listings, model.SortFieldPrice, model.SortOrderDesc)
	assert.Equal(t, []string{"s200", "n100", "abc"}, ids(desc))

	// input untouched
	assert.Equal(t, []string{"s200", "n100", "abc"}, ids(listings))
}

func TestSortStage_LenientPriceParsing(t *testing.T) {
	listings := []model.Listing{
		{"hotelId": "suffix", "Price": "1500 INR"},
		{"hotelId": "nil", "Price": nil},
		{"hotelId": "decimal", "Price": ".5"},
		{"hotelId": "absent"},
	}

	got := SortStage(listings, model.SortFieldPrice, model.SortOrderAsc)
	assert.Equal(t, []string{"nil", "absent", "decimal", "suffix"}, ids(got))
}

func TestSortStage_Stability(t *testing.T) {
	listings := []model.Listing{
		{"hotelId": "a", "Final_rating": 4.0, "Price": 100.0},
		{"hotelId": "b", "Final_rating": 3.0, "Price": 100.0},
		{"hotelId": "c", "Final_rating": 4.0, "Price": 100.0},
		{"hotelId": "d", "Final_rating": "4", "Price": 100.0},
		{"hotelId": "e", "Final_rating": 3.0, "Price": 100.0},
	}

	tests := []struct {
		name     string
		field    model.SortField
		order    model.SortOrder
		expected []string
	}{
		{"rating asc", model.SortFieldRating, model.SortOrderAsc, []string{"b", "e", "a", "c", "d"}},
		{"rating desc", model.SortFieldRating, model.SortOrderDesc, []string{"a", "c", "d", "b", "e"}},
		{"all equal price asc", model.SortFieldPrice, model.SortOrderAsc, []string{"a", "b", "c", "d", "e"}},
		{"all equal price desc", model.SortFieldPrice, model.SortOrderDesc, []string{"a", "b", "c", "d", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(SortStage(listings, tt.field, tt.order)))
		})
	}
}

func TestSortStage_MixedRatingKinds(t *testing.T) {
	listings := []model.Listing{
		{"hotelId": "text-b", "Final_rating": "Bravo"},
		{"hotelId": "num", "Final_rating": 2.5},
		{"hotelId": "missing"},
		{"hotelId": "text-a", "Final_rating": "alpha"},
	}

	asc := SortStage(listings, model.SortFieldRating, model.SortOrderAsc)
	assert.Equal(t, []string{"missing", "num", "text-a", "text-b"}, ids(asc))

	desc := SortStage(listings, model.SortFieldRating, model.SortOrderDesc)
	assert.Equal(t, []string{"text-b", "text-a", "num", "missing"}, ids(desc))
}

func TestSortStage_Empty(t *testing.T) {
	got := SortStage(nil, model.SortFieldPrice, model.SortOrderAsc)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseSortFieldAndOrder(t *testing.T) {
	field, err := ParseSortField("Price")
	assert.NoError(t, err)
	assert.Equal(t, model.SortFieldPrice, field)

	_, err = ParseSortField("Hotel_name")
	assert.Error(t, err)

	order, err := ParseSortOrder("desc")
	assert.NoError(t, err)
	assert.Equal(t, model.SortOrderDesc, order)

	_, err = ParseSortOrder("DESC")
	assert.Error(t, err)
}

func TestTextFilter(t *testing.T) {
	listings := []model.Listing{
		{"hotelId": "1", "Hotel_name": "Taj Mahal Palace"},
		{"hotelId": "2", "Hotel_name": "Hotel Residency"},
		{"hotelId": "3"},
		{"hotelId": "4", "Hotel_name": ""},
		{"hotelId": "5", "Hotel_name": "The Oberoi"},
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"empty query passes everything", "", []string{"1", "2", "3", "4", "5"}},
		{"case insensitive", "TAJ", []string{"1"}},
		{"substring match", "o", []string{"2", "5"}},
		{"no match", "marriott", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(TextFilter(listings, tt.query)))
		})
	}
}

func TestTextFilter_EmptyQueryIdentityOnNamed(t *testing.T) {
	listings := []model.Listing{
		{"hotelId": "b", "Hotel_name": "B"},
		{"hotelId": "a", "Hotel_name": "A"},
	}
	got := TextFilter(listings, "")
	assert.Equal(t, listings, got)

	got[0] = model.Listing{"hotelId": "z"}
	assert.Equal(t, "b", listings[0]["hotelId"], "returned slice must not alias the input")
}
