package stats

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jinzhu/now"
	"github.com/samber/lo"

	energy "ecotrack/internal/energy/domain"
)

// Range is an inclusive date filter. Bounds are YYYY-MM or YYYY-MM-DD and are
// compared as strings, which matches chronological order for zero-padded
// dates. Empty bounds are open.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether date falls inside r. Empty dates never match.
func (r Range) Contains(date string) bool {
	if date == "" {
		return false
	}
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// FilterPoints keeps the points inside r.
func (r Range) FilterPoints(points []Point) []Point {
	return lo.Filter(points, func(p Point, _ int) bool { return r.Contains(p.Date) })
}

// FilterReadings keeps the readings inside r.
func (r Range) FilterReadings(readings []energy.Reading) []energy.Reading {
	return lo.Filter(readings, func(x energy.Reading, _ int) bool { return r.Contains(x.Date) })
}

// FilterSubReadings keeps the sub-readings inside r.
func (r Range) FilterSubReadings(readings []energy.SubReading) []energy.SubReading {
	return lo.Filter(readings, func(x energy.SubReading, _ int) bool { return r.Contains(x.Date) })
}

// PresetAll is the unbounded range.
func PresetAll() Range {
	return Range{}
}

// PresetYear covers one calendar year. Bounds are months so that a stored
// "YYYY-01" is not excluded by a "YYYY-01-01" start.
func PresetYear(year int) Range {
	y := fmt.Sprintf("%04d", year)
	return Range{Start: y + "-01", End: y + "-12"}
}

// PresetLastMonths spans from the month n months before t to the month of t.
func PresetLastMonths(t time.Time, n int) Range {
	end := now.With(t.UTC()).BeginningOfMonth()
	start := end.AddDate(0, -n, 0)
	return Range{Start: energy.FormatMonth(start), End: energy.FormatMonth(end)}
}

// Preset resolves a named preset: "all", "12m" or a four-digit year.
func Preset(name string, t time.Time) (Range, bool) {
	switch name {
	case "", "all":
		return PresetAll(), true
	case "12m":
		return PresetLastMonths(t, 12), true
	}
	if len(name) == 4 {
		if year, err := strconv.Atoi(name); err == nil && year > 0 {
			return PresetYear(year), true
		}
	}
	return Range{}, false
}

// SortAscending orders points oldest first. Points with unparseable dates go last.
func SortAscending(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return before(points[i].Date, points[j].Date)
	})
}

// SortReadingsDescending orders readings newest first, for history tables.
func SortReadingsDescending(readings []energy.Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return after(readings[i].Date, readings[j].Date)
	})
}

// SortSubReadingsDescending orders sub-readings newest first.
func SortSubReadingsDescending(readings []energy.SubReading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return after(readings[i].Date, readings[j].Date)
	})
}

// before reports whether date a sorts before b. Unparseable dates compare
// after every valid one and equal to each other.
func before(a, b string) bool {
	ta, errA := energy.ParseMonth(a)
	tb, errB := energy.ParseMonth(b)
	switch {
	case errA != nil:
		return false
	case errB != nil:
		return true
	default:
		return ta.Before(tb)
	}
}

// after is before with the time order reversed; unparseable dates still go last.
func after(a, b string) bool {
	ta, errA := energy.ParseMonth(a)
	tb, errB := energy.ParseMonth(b)
	switch {
	case errA != nil:
		return false
	case errB != nil:
		return true
	default:
		return ta.After(tb)
	}
}
