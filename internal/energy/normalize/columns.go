package normalize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field is a canonical reading field resolved from arbitrary column names.
type Field string

const (
	FieldDate     Field = "date"
	FieldGridKwh  Field = "grid_kwh"
	FieldSolarKwh Field = "solar_kwh"
	FieldCost     Field = "cost"
	FieldNotes    Field = "notes"
)

// Fields lists every resolvable field.
var Fields = []Field{FieldDate, FieldGridKwh, FieldSolarKwh, FieldCost, FieldNotes}

// IsValid reports whether f is a known field.
func (f Field) IsValid() bool {
	switch f {
	case FieldDate, FieldGridKwh, FieldSolarKwh, FieldCost, FieldNotes:
		return true
	default:
		return false
	}
}

// Matcher holds the ordered candidate substrings for one field.
type Matcher struct {
	Field      Field
	Candidates []string
}

// Matchers resolves fields against row keys.
type Matchers []Matcher

// DefaultMatchers returns the built-in Spanish/English candidate lists.
func DefaultMatchers() Matchers {
	return Matchers{
		{Field: FieldDate, Candidates: []string{"fecha", "date"}},
		{Field: FieldGridKwh, Candidates: []string{"consumo red", "consumo", "kwh", "grid"}},
		{Field: FieldSolarKwh, Candidates: []string{"solar", "placas", "produccion", "sun"}},
		{Field: FieldCost, Candidates: []string{"coste", "cost", "€", "eur", "importe", "precio"}},
		{Field: FieldNotes, Candidates: []string{"nota", "obs", "comment"}},
	}
}

// Candidates returns the candidate list for field.
func (m Matchers) Candidates(field Field) []string {
	for _, matcher := range m {
		if matcher.Field == field {
			return matcher.Candidates
		}
	}
	return nil
}

// Resolve returns the value of the first row key (in row order) that
// contains any candidate of field, case-insensitively.
func (m Matchers) Resolve(row Row, field Field) (any, bool) {
	candidates := m.Candidates(field)
	if len(candidates) == 0 {
		return nil, false
	}
	return row.find(candidates)
}

// with returns a copy of m where field uses candidates.
func (m Matchers) with(field Field, candidates []string) Matchers {
	out := make(Matchers, 0, len(m))
	replaced := false
	for _, matcher := range m {
		if matcher.Field == field {
			matcher.Candidates = append([]string{}, candidates...)
			replaced = true
		}
		out = append(out, matcher)
	}
	if !replaced {
		out = append(out, Matcher{Field: field, Candidates: append([]string{}, candidates...)})
	}
	return out
}

type columnsFile struct {
	Columns map[string][]string `yaml:"columns"`
}

// LoadMatchers reads candidate overrides from a YAML file of the form
//
//	columns:
//	  date: [fecha, date, periodo]
//	  cost: [coste, cost, total]
//
// Fields not listed keep their defaults.
func LoadMatchers(path string) (Matchers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMatchers(data)
}

// ParseMatchers parses a YAML columns document on top of the defaults.
func ParseMatchers(data []byte) (Matchers, error) {
	var file columnsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("normalize: columns file: %w", err)
	}
	matchers := DefaultMatchers()
	for name, candidates := range file.Columns {
		field := Field(name)
		if !field.IsValid() {
			return nil, fmt.Errorf("normalize: unknown column field %q", name)
		}
		if len(candidates) == 0 {
			continue
		}
		matchers = matchers.with(field, candidates)
	}
	return matchers, nil
}
