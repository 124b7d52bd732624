package upstream

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-hotel-search/internal/errors"
	"github.com/gcbaptista/go-hotel-search/model"
	"github.com/gcbaptista/go-hotel-search/services"
)

func writeDataset(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hotels.csv")
	content := strings.Join(DatasetColumns, ",") + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDataset_FetchLocal(t *testing.T) {
	path := writeDataset(t,
		`101,Collection O Beach Stay,"Calangute, North Goa",Goa,15.54,73.76,,Available,1499,,3.9,4.1`,
		`102,Townhouse Panjim,Panjim,goa,,,Townhouse,,,USD,,`,
		`201,Capital O Delhi,Karol Bagh,Delhi,28.65,77.19,hotel,Available,2100,INR,4.0,4.0`,
		`301,No City Hotel,Somewhere,,1,1,hotel,,500,INR,3,3`,
	)
	dataset := NewDataset(path, nil)

	batch, err := dataset.FetchLocal(context.Background(), services.SearchParams{City: "  GOA "})
	require.NoError(t, err)
	assert.False(t, batch.FromCache)
	require.Len(t, batch.Hotels, 2)

	first := batch.Hotels[0]
	assert.Equal(t, "101", first[model.FieldID])
	assert.Equal(t, "Calangute, North Goa", first[model.FieldAddress])
	assert.Equal(t, 1499.0, first[model.FieldPrice])
	assert.Equal(t, 4.1, first[model.FieldFinalRating])
	assert.Equal(t, "hotel", first[model.FieldPropertyType], "blank property type defaults to hotel")
	assert.Equal(t, "INR", first[model.FieldCurrency], "blank currency defaults to INR")

	second := batch.Hotels[1]
	assert.Nil(t, second[model.FieldPrice], "blank numerics are missing")
	assert.Nil(t, second[model.FieldLatitude])
	assert.Equal(t, "Townhouse", second[model.FieldPropertyType])
	assert.Equal(t, "USD", second[model.FieldCurrency])
	assert.Equal(t, "", second[model.FieldStatus])

	size, err := dataset.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size, "rows without a city are skipped")
}

func TestDataset_UnknownCityIsEmpty(t *testing.T) {
	dataset := NewDataset(writeDataset(t, `1,A,,Pune,,,,,100,,,`), nil)

	batch, err := dataset.FetchLocal(context.Background(), services.SearchParams{City: "Chennai"})
	require.NoError(t, err)
	assert.NotNil(t, batch.Hotels)
	assert.Empty(t, batch.Hotels)
}

func TestDataset_ReturnsIndependentSlices(t *testing.T) {
	dataset := NewDataset(writeDataset(t, `1,A,,Pune,,,,,100,,,`, `2,B,,Pune,,,,,200,,,`), nil)

	first, err := dataset.FetchLocal(context.Background(), services.SearchParams{City: "pune"})
	require.NoError(t, err)
	first.Hotels[0] = model.Listing{"hotelId": "mutated"}

	second, err := dataset.FetchLocal(context.Background(), services.SearchParams{City: "pune"})
	require.NoError(t, err)
	assert.Equal(t, "1", second.Hotels[0][model.FieldID])
}

func TestDataset_UnparseableNumericKeptAsText(t *testing.T) {
	dataset := NewDataset(writeDataset(t, `1,A,,Pune,,,,,on request,,,`), nil)

	batch, err := dataset.FetchLocal(context.Background(), services.SearchParams{City: "pune"})
	require.NoError(t, err)
	require.Len(t, batch.Hotels, 1)
	assert.Equal(t, "on request", batch.Hotels[0][model.FieldPrice])
}

func TestDataset_NonFiniteNumericKeptAsText(t *testing.T) {
	dataset := NewDataset(writeDataset(t,
		`1,A,,Pune,,,,,NaN,,Inf,`,
		`2,B,,Pune,,,,,-infinity,,,nan`,
	), nil)

	batch, err := dataset.FetchLocal(context.Background(), services.SearchParams{City: "pune"})
	require.NoError(t, err)
	require.Len(t, batch.Hotels, 2)
	assert.Equal(t, "NaN", batch.Hotels[0][model.FieldPrice])
	assert.Equal(t, "Inf", batch.Hotels[0][model.FieldRating])
	assert.Equal(t, "-infinity", batch.Hotels[1][model.FieldPrice])
	assert.Equal(t, "nan", batch.Hotels[1][model.FieldFinalRating])

	_, err = json.Marshal(batch.Hotels)
	assert.NoError(t, err, "listings must stay encodable")
}

func TestDataset_MissingFile(t *testing.T) {
	dataset := NewDataset(filepath.Join(t.TempDir(), "missing.csv"), nil)

	_, err := dataset.FetchLocal(context.Background(), services.SearchParams{City: "goa"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUpstream)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = dataset.Size()
	assert.Error(t, err)
}

func TestDataset_CanceledContext(t *testing.T) {
	dataset := NewDataset(writeDataset(t, `1,A,,Pune,,,,,100,,,`), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dataset.FetchLocal(ctx, services.SearchParams{City: "pune"})
	assert.ErrorIs(t, err, context.Canceled)
}
