package domain

import (
	"fmt"
	"strings"
	"time"
)

// Absolute layouts accepted by ParseTimeRef, most specific first.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Clock layouts accepted by ParseTimeRef, resolved against today.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
}

// ParseTimeRef parses a user supplied jump target. It accepts RFC 3339,
// local "YYYY-MM-DD[ HH:MM[:SS]]", a local clock time for today, "now",
// or a negative duration relative to now such as "-90m".
func ParseTimeRef(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty time", ErrInvalidInput)
	}
	if s == "now" {
		return now, nil
	}
	if strings.HasPrefix(s, "-") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad relative time %q", ErrInvalidInput, s)
		}
		return now.Add(d), nil
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			y, m, d := now.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, now.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised time %q", ErrInvalidInput, s)
}
