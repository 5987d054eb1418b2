package stats

import (
	"strings"

	"github.com/samber/lo"

	energy "ecotrack/internal/energy/domain"
)

var solarReferenceMarkers = []string{"total ips", "general"}

// IsSolarReference reports whether a meter name marks the site-wide meter whose
// solar figures are authoritative.
func IsSolarReference(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range solarReferenceMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// SolarReference returns the first reference meter and its readings.
func SolarReference(meters []energy.Meter, readings []energy.Reading) (energy.Meter, []energy.Reading, bool) {
	meter, ok := lo.Find(meters, func(m energy.Meter) bool { return IsSolarReference(m.Name) })
	if !ok {
		return energy.Meter{}, nil, false
	}
	own := lo.Filter(readings, func(r energy.Reading, _ int) bool { return r.MeterID == meter.ID })
	return meter, own, true
}

// JoinSolar fills points without their own solar figure from the first
// reference reading with the same date string.
func JoinSolar(points []Point, reference []energy.Reading) []Point {
	if len(reference) == 0 {
		return points
	}
	byDate := make(map[string]float64, len(reference))
	for _, r := range reference {
		if _, seen := byDate[r.Date]; !seen {
			byDate[r.Date] = r.Solar()
		}
	}
	out := make([]Point, len(points))
	for i, p := range points {
		if p.SolarKwh == 0 {
			p.SolarKwh = byDate[p.Date]
		}
		out[i] = p
	}
	return out
}
