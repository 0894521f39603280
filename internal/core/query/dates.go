package query

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006",
}

// ParseDate accepts the date shapes stored in bookings, events and users.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// dateOrEpoch is the sort key for dates; anything unparseable sorts as the
// Unix epoch.
func dateOrEpoch(s string) time.Time {
	if ts, ok := ParseDate(s); ok {
		return ts
	}
	return time.Unix(0, 0).UTC()
}

// ParseRangeBound parses a date range bound from user input. A date-only
// upper bound covers the whole day.
func ParseRangeBound(s string, upper bool) (time.Time, bool) {
	ts, ok := ParseDate(s)
	if !ok {
		return time.Time{}, false
	}

	if upper && len(strings.TrimSpace(s)) == len("2006-01-02") {
		ts = ts.Add(24*time.Hour - time.Nanosecond)
	}
	return ts, true
}
