package model

import (
	"strings"
	"time"
)

const (
	// DisplayLayout renders timestamps the way the id-ID locale does (dd/mm/yyyy hh.mm).
	DisplayLayout = "02/01/2006 15.04"
	// InputLayout is the value format of an HTML datetime-local input.
	InputLayout = "2006-01-02T15:04"
)

// FormatTime renders t in loc for display. The zero time renders as "-".
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}

// FormatInput renders t for a datetime-local input, empty for the zero time.
func FormatInput(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(InputLayout)
}

// ParseInput parses a datetime-local value in loc. An empty value yields the zero time.
func ParseInput(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(InputLayout, v, loc)
	if err != nil {
		// browsers may include seconds
		t, err = time.ParseInLocation("2006-01-02T15:04:05", v, loc)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t.UTC(), nil
}
