package ranking

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-hotel-search/model"
)

// leadingFloat matches the numeric prefix a lenient float parser would accept ("200 INR" -> 200).
var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// toNumber converts a raw field value to a finite float64.
// Anything that is not a finite number, including blank strings, is reported as missing.
func toNumber(val interface{}) (float64, bool) {
	var f float64
	switch v := val.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// lenientNumber reads a value for numeric sorting. Strings contribute their
// leading numeric prefix; everything unreadable counts as 0.
func lenientNumber(val interface{}) float64 {
	if s, ok := val.(string); ok {
		m := leadingFloat.FindString(strings.TrimSpace(s))
		if m == "" {
			return 0
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
	if f, ok := toNumber(val); ok {
		return f
	}
	return 0
}

// EffectiveRating resolves the rating used for ranking: Final_rating first, then Rating.
func EffectiveRating(l model.Listing) (float64, bool) {
	if r, ok := toNumber(l[model.FieldFinalRating]); ok {
		return r, true
	}
	return toNumber(l[model.FieldRating])
}

// EffectivePrice resolves the price used for ranking.
func EffectivePrice(l model.Listing) (float64, bool) {
	return toNumber(l[model.FieldPrice])
}

// IsComplete reports whether both an effective rating and an effective price resolve.
func IsComplete(l model.Listing) bool {
	if _, ok := EffectiveRating(l); !ok {
		return false
	}
	_, ok := EffectivePrice(l)
	return ok
}
