package service

import (
	"strings"
	"time"
	"unicode/utf8"
)

const maxTitleLen = 200

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate accepts YYYY-MM-DD or RFC3339; empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, invalid("invalid date %q, want YYYY-MM-DD", s)
}

// ParseDateEnd parses the exclusive upper bound of a range. A bare date
// covers that whole day, so it becomes midnight of the following day.
func ParseDateEnd(s string) (*time.Time, error) {
	t, err := ParseDate(s)
	if err != nil || t == nil {
		return t, err
	}
	if _, err := time.Parse(dateLayouts[0], strings.TrimSpace(s)); err == nil {
		next := t.AddDate(0, 0, 1)
		return &next, nil
	}
	return t, nil
}

func requireTitle(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("%s is required", field)
	}
	if utf8.RuneCountInString(s) > maxTitleLen {
		return "", invalid("%s must be at most %d characters", field, maxTitleLen)
	}
	return s, nil
}

// startOfDay truncates t to midnight in its location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of t's week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func ptr[T any](v T) *T {
	return &v
}
