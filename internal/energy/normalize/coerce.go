package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	energy "ecotrack/internal/energy/domain"
)

// excelEpochOffset is the number of days between the spreadsheet epoch
// (1899-12-30) and the Unix epoch.
const excelEpochOffset = 25569

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Float coerces any value to a float. Numbers pass through, strings are
// parsed from their leading numeric prefix ("18.50 €" is 18.5) and anything
// else, including NaN and infinities, is 0. It never fails.
func Float(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		f = parseLeadingFloat(x)
	case []byte:
		f = parseLeadingFloat(string(x))
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseLeadingFloat(s string) float64 {
	match := leadingNumber.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}

// Text renders a cell value as free text.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	default:
		if isNumber(v) {
			return strconv.FormatFloat(Float(v), 'f', -1, 64)
		}
		return ""
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// dateLayouts are tried in order for free-form date strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006-1",
	"2006/01/02",
	"2006/1/2",
	"2006/01",
	"2006/1",
	"01/02/2006",
	"1/2/2006",
	"January 2006",
	"Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006",
}

// Date coerces a raw cell into a YYYY-MM month. Numbers are spreadsheet
// serial dates (0 counts as empty), strings are parsed against common layouts
// and then split on '-' or '/' looking for a year in the first or third part.
// Anything else is the month of now.
func Date(v any, now time.Time) string {
	if t, ok := v.(time.Time); ok && !t.IsZero() {
		return energy.FormatMonth(t)
	}
	if isNumber(v) {
		if Float(v) == 0 {
			return energy.CurrentMonth(now)
		}
		if month, ok := serialMonth(Float(v)); ok {
			return month
		}
		return energy.CurrentMonth(now)
	}
	s, ok := v.(string)
	if !ok {
		return energy.CurrentMonth(now)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return energy.CurrentMonth(now)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return energy.FormatMonth(t)
		}
	}
	if month, ok := splitMonth(s); ok {
		return month
	}
	return energy.CurrentMonth(now)
}

// SerialToTime converts a spreadsheet serial date to a UTC instant.
func SerialToTime(serial float64) time.Time {
	ms := math.Round((serial - excelEpochOffset) * 86400 * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

func serialMonth(serial float64) (string, bool) {
	// Outside this window the millisecond value overflows or the year is
	// not four digits.
	if serial < -693593 || serial > 2958465 {
		return "", false
	}
	t := SerialToTime(serial)
	if t.Year() < 0 || t.Year() > 9999 {
		return "", false
	}
	return energy.FormatMonth(t), true
}

func splitMonth(s string) (string, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) != 3 {
		return "", false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var candidate string
	switch {
	case leadingInt(parts[0]) > 1000:
		candidate = parts[0] + "-" + padMonth(parts[1])
	case leadingInt(parts[2]) > 1000:
		candidate = parts[2] + "-" + padMonth(parts[1])
	default:
		return "", false
	}
	if !energy.IsMonth(candidate) {
		return "", false
	}
	return candidate, true
}

func padMonth(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// Month coerces a backup date field. Values already starting with YYYY-MM
// keep their first seven characters; everything else goes through Date.
func Month(v any, now time.Time) string {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if len(s) >= len(energy.MonthLayout) && energy.IsMonth(s[:len(energy.MonthLayout)]) {
			return s[:len(energy.MonthLayout)]
		}
	}
	return Date(v, now)
}
