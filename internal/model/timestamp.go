package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoTimestamp is returned by ParseTimestamp for nil or empty input.
var ErrNoTimestamp = errors.New("no timestamp")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp coerces a stored or submitted timestamp into UTC. It
// accepts native time values as well as ISO-8601 strings with or without
// a zone suffix; zone-less strings are read as UTC.
//
// Item production dates go through here both when validating claims and
// when probing a single item's age.
func ParseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, ErrNoTimestamp
	case time.Time:
		if t.IsZero() {
			return time.Time{}, ErrNoTimestamp
		}
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, ErrNoTimestamp
		}
		return ParseTimestamp(*t)
	case []byte:
		return parseTimestampString(string(t))
	case string:
		return parseTimestampString(t)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTimestampString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " m="); i > 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, ErrNoTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
