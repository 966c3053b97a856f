package prepare

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/forceplate/internal/domain/types"
)

// Accepted date layouts, tried in order. ISO forms come first so that
// an ambiguous value is never read as US.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
}

// ParseDate parses s with the accepted layouts and truncates the result
// to its UTC calendar day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == time.RFC3339 {
			t = t.UTC()
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// parseCell converts a raw cell for col. An empty cell is missing without
// a reason; an unparseable one is missing with ReasonNonNumeric.
func parseCell(raw string, col Column) (float64, bool, types.Reason) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") || s == "-" {
		return 0, false, ""
	}
	if col.Kind == KindAsymmetry {
		s = strings.TrimSpace(strings.TrimRight(s, "LRlr% "))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, types.ReasonNonNumeric
	}
	if col.Kind == KindAsymmetry {
		v = math.Abs(v)
	}
	scale := col.Scale
	if scale == 0 {
		scale = 1
	}
	return v * scale, true, ""
}
