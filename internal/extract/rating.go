package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/Tang0602/Amap/internal/model"
)

// ratingKeys are tried in order; the first value that parses wins.
var ratingKeys = []string{"stars", "rating"}

// ParseRating returns the numeric rating from the stars or rating tag, or nil.
// Unparseable values fall through to the next key.
func ParseRating(tags model.Tags) *float64 {
	for _, key := range ratingKeys {
		raw, ok := tags.Get(key)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return &v
	}
	return nil
}
