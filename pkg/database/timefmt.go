package database

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the on-disk timestamp format. It is fixed width and always
// UTC, so string comparison in SQL orders the same way as time comparison.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// legacyLayouts are accepted when reading rows written by older tooling.
var legacyLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
