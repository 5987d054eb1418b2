package energy

import (
	"strings"
	"time"
)

// MonthLayout is the canonical persisted date layout.
const MonthLayout = "2006-01"

// FormatMonth renders t as YYYY-MM in UTC.
func FormatMonth(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

// CurrentMonth returns the month of now.
func CurrentMonth(now time.Time) string {
	return FormatMonth(now)
}

// IsMonth reports whether s is exactly a zero-padded YYYY-MM month.
func IsMonth(s string) bool {
	if len(s) != len(MonthLayout) {
		return false
	}
	_, err := time.Parse(MonthLayout, s)
	return err == nil
}

// ParseMonth parses YYYY-MM or YYYY-MM-DD into the first instant of its month.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len("2006-01-02") {
		if t, err := time.Parse("2006-01-02", s[:len("2006-01-02")]); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	if len(s) >= len(MonthLayout) {
		if t, err := time.Parse(MonthLayout, s[:len(MonthLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidMonth
}
