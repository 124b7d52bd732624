package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Wire keys used by the upstream hotel backends.
const (
	FieldID           = "hotelId"
	FieldName         = "Hotel_name"
	FieldFinalRating  = "Final_rating"
	FieldRating       = "Rating"
	FieldPrice        = "Price"
	FieldCurrency     = "Currency"
	FieldStatus       = "Room_status"
	FieldPropertyType = "Property_type"
	FieldAddress      = "Address"
	FieldCity         = "City"
	FieldLatitude     = "Latitude"
	FieldLongitude    = "Longitude"
)

// Listing is a single hotel candidate as returned by a data source.
// Values keep whatever type the source sent (numbers, numeric strings, nulls);
// ranking code reads them through coercion helpers and never writes to them.
// Example: l["Hotel_name"], l["Price"]
type Listing map[string]interface{}

// GetID returns the listing identifier in a canonical string form so that a
// numeric 42 and a string "42" are treated as the same identifier.
func (l Listing) GetID() (string, bool) {
	raw, ok := l[FieldID]
	if !ok || raw == nil {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case json.Number:
		return v.String(), v.String() != ""
	}
	return "", false
}

// GetName returns the listing name if it is a non-empty string.
func (l Listing) GetName() (string, bool) {
	if name, ok := l[FieldName].(string); ok && name != "" {
		return name, true
	}
	return "", false
}

// GetCity returns the trimmed city value if present.
func (l Listing) GetCity() (string, bool) {
	if city, ok := l[FieldCity].(string); ok {
		city = strings.TrimSpace(city)
		return city, city != ""
	}
	return "", false
}
