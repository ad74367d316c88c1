package table

import (
	"math"
	"strings"
	"time"
)

// Fractional seconds are accepted after the seconds field by time.Parse even
// when the layout omits them.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseTimestamp parses the timestamp formats plant CSV exports use. Values
// without an offset are UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// AsTimestamp converts a cell to a time. Strings are parsed and numbers are
// nanoseconds since the Unix epoch in UTC. Nulls, NaN and unparseable values
// report false.
func AsTimestamp(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return ParseTimestamp(x)
	case int64:
		return time.Unix(0, x).UTC(), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}, false
		}
		return time.Unix(0, int64(x)).UTC(), true
	}
	return time.Time{}, false
}

// FormatTimestamp renders ts the way CSV artifacts store it.
func FormatTimestamp(ts time.Time) string {
	if ts.Location() == time.UTC {
		return ts.Format("2006-01-02 15:04:05.999999999")
	}
	return ts.Format(time.RFC3339Nano)
}
