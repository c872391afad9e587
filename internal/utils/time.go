package utils

import (
	"strconv"
	"strings"
	"time"
)

// FormatClock renders the local time of day of t
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// FormatDay renders a calendar day heading, e.g. "Mon, 02 Jan 2006"
func FormatDay(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006")
}

// ParseGrams reads a user-typed gram amount. A decimal comma is accepted and a
// trailing "g" is ignored. It returns nil when text is not a number.
func ParseGrams(text string) *float64 {
	s := strings.TrimSpace(strings.ToLower(text))
	s = strings.TrimSuffix(s, "g")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
