package normalize

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	energy "ecotrack/internal/energy/domain"
)

var fixedNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestNormalizer(opts ...Option) *Normalizer {
	seq := 0
	base := []Option{
		WithClock(energy.FixedClock{At: fixedNow}),
		WithIDFunc(func() string {
			seq++
			return "r-" + string(rune('0'+seq))
		}),
	}
	return NewNormalizer(append(base, opts...)...)
}

func TestNormalizeRowScenario(t *testing.T) {
	row := Row{
		{Key: "Fecha", Value: "2024-03"},
		{Key: "Consumo Red (kWh)", Value: "120"},
		{Key: "Solar", Value: "30"},
		{Key: "Coste", Value: "18.50"},
	}
	reading := newTestNormalizer().NormalizeRow(row, "meter-1")

	if reading.MeterID != "meter-1" {
		t.Fatalf("expected meter-1, got %q", reading.MeterID)
	}
	if reading.ID == "" {
		t.Fatalf("expected generated id")
	}
	if reading.Date != "2024-03" {
		t.Fatalf("expected 2024-03, got %q", reading.Date)
	}
	if reading.Kwh != 120 {
		t.Fatalf("expected kwh 120, got %v", reading.Kwh)
	}
	if reading.SolarKwh == nil || *reading.SolarKwh != 30 {
		t.Fatalf("expected solar 30, got %v", reading.SolarKwh)
	}
	if reading.Cost != 18.5 {
		t.Fatalf("expected cost 18.5, got %v", reading.Cost)
	}
	if reading.Notes != "" {
		t.Fatalf("expected empty notes, got %q", reading.Notes)
	}
}

func TestNormalizeRowFirstMatchingKeyWins(t *testing.T) {
	// Candidates are not ranked: the leftmost column containing any of them wins.
	row := Row{
		{Key: "Fecha", Value: "2024-01"},
		{Key: "Consumo Real (kWh)", Value: 300.0},
		{Key: "Consumo Red (kWh)", Value: 200.0},
	}
	reading := newTestNormalizer().NormalizeRow(row, "m")
	if reading.Kwh != 300 {
		t.Fatalf("expected first matching column 300, got %v", reading.Kwh)
	}
}

func TestNormalizeRowMissingFields(t *testing.T) {
	row := Row{{Key: "Observaciones", Value: 12.0}}
	reading := newTestNormalizer().NormalizeRow(row, "m")
	if reading.Date != "2025-06" {
		t.Fatalf("expected current month 2025-06, got %q", reading.Date)
	}
	if reading.Kwh != 0 || reading.Cost != 0 || reading.Solar() != 0 {
		t.Fatalf("expected zero quantities, got %+v", reading)
	}
	if reading.Notes != "12" {
		t.Fatalf("expected notes 12, got %q", reading.Notes)
	}
}

func TestNormalizeBatchAcceptanceFilter(t *testing.T) {
	rows := []Row{
		{{Key: "fecha", Value: "2024-01"}, {Key: "kwh", Value: "0"}, {Key: "coste", Value: ""}},
		{{Key: "fecha", Value: "2024-02"}, {Key: "solar", Value: "4"}},
		{{Key: "notas", Value: "sin datos"}},
		{{Key: "importe", Value: "9.99"}},
		{{Key: "kwh", Value: "-3"}},
	}
	batch := newTestNormalizer().NormalizeBatch(rows, "m")
	if len(batch.Readings) != 3 {
		t.Fatalf("expected 3 kept readings, got %d", len(batch.Readings))
	}
	if batch.Discarded != 2 {
		t.Fatalf("expected 2 discarded, got %d", batch.Discarded)
	}
	if batch.Total() != 5 {
		t.Fatalf("expected total 5, got %d", batch.Total())
	}
	if batch.Readings[2].Kwh != -3 {
		t.Fatalf("expected negative kwh preserved, got %v", batch.Readings[2].Kwh)
	}
}

func TestDate(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{name: "month", in: "2024-03", want: "2024-03"},
		{name: "iso day", in: "2024-03-15", want: "2024-03"},
		{name: "iso datetime", in: "2024-03-15T10:00:00Z", want: "2024-03"},
		{name: "slash ymd", in: "2024/3/5", want: "2024-03"},
		{name: "day first", in: "15/03/2024", want: "2024-03"},
		{name: "dash day first", in: "5-3-2024", want: "2024-03"},
		{name: "year first unpadded", in: "2024-3-x", want: "2024-03"},
		{name: "unpadded year month", in: "2024-3", want: "2024-03"},
		{name: "unpadded slash year month", in: "2024/3", want: "2024-03"},
		{name: "month name", in: "March 2024", want: "2024-03"},
		{name: "serial", in: 45000.0, want: "2023-03"},
		{name: "serial int", in: 45000, want: "2023-03"},
		{name: "serial fraction", in: 45000.75, want: "2023-03"},
		{name: "zero serial", in: 0.0, want: "2025-06"},
		{name: "zero int", in: 0, want: "2025-06"},
		{name: "invalid month part", in: "2024-13-01", want: "2025-06"},
		{name: "garbage", in: "n/a", want: "2025-06"},
		{name: "empty", in: "", want: "2025-06"},
		{name: "nil", in: nil, want: "2025-06"},
		{name: "bool", in: true, want: "2025-06"},
		{name: "time", in: time.Date(2022, time.November, 3, 0, 0, 0, 0, time.UTC), want: "2022-11"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Date(tc.in, fixedNow); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSerialToTime(t *testing.T) {
	got := SerialToTime(45000)
	want := time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{in: "18.50", want: 18.5},
		{in: "18.50 €", want: 18.5},
		{in: " 42 ", want: 42},
		{in: "12,5", want: 12},
		{in: ".5", want: 0.5},
		{in: "1e3", want: 1000},
		{in: "-5", want: -5},
		{in: "abc", want: 0},
		{in: "", want: 0},
		{in: nil, want: 0},
		{in: true, want: 0},
		{in: 7, want: 7},
		{in: int64(9), want: 9},
		{in: float32(1.5), want: 1.5},
		{in: math.NaN(), want: 0},
		{in: math.Inf(1), want: 0},
	}
	for _, tc := range cases {
		if got := Float(tc.in); got != tc.want {
			t.Fatalf("Float(%#v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestMonth(t *testing.T) {
	if got := Month("2024-03-15T00:00:00.000Z", fixedNow); got != "2024-03" {
		t.Fatalf("expected 2024-03, got %q", got)
	}
	if got := Month("15/03/2024", fixedNow); got != "2024-03" {
		t.Fatalf("expected 2024-03, got %q", got)
	}
	if got := Month(nil, fixedNow); got != "2025-06" {
		t.Fatalf("expected 2025-06, got %q", got)
	}
	if got := Month("2024-3", fixedNow); got != "2024-03" {
		t.Fatalf("expected unpadded month 2024-03, got %q", got)
	}
}

func TestNormalizeRowUnpaddedMonth(t *testing.T) {
	row := Row{{Key: "Fecha", Value: "2024-3"}, {Key: "kWh", Value: "100"}}
	reading := newTestNormalizer().NormalizeRow(row, "m")
	if reading.Date != "2024-03" {
		t.Fatalf("expected 2024-03, got %q", reading.Date)
	}
	if reading.Kwh != 100 {
		t.Fatalf("expected kwh 100, got %v", reading.Kwh)
	}
}

func TestParseMatchersOverride(t *testing.T) {
	matchers, err := ParseMatchers([]byte("columns:\n  cost: [total]\n"))
	if err != nil {
		t.Fatalf("parse matchers: %v", err)
	}
	if got := matchers.Candidates(FieldCost); len(got) != 1 || got[0] != "total" {
		t.Fatalf("expected [total], got %v", got)
	}
	if got := matchers.Candidates(FieldDate); len(got) != 2 {
		t.Fatalf("expected default date candidates, got %v", got)
	}

	row := Row{{Key: "Periodo", Value: "2024-05"}, {Key: "Total", Value: "33"}, {Key: "kWh", Value: "100"}}
	reading := newTestNormalizer(WithMatchers(matchers)).NormalizeRow(row, "m")
	if reading.Cost != 33 {
		t.Fatalf("expected cost 33, got %v", reading.Cost)
	}

	if _, err := ParseMatchers([]byte("columns:\n  voltage: [v]\n")); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestReadSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []any{"Fecha", "Consumo Red (kWh)", "Producción Solar (kWh)", "Coste Pagado (€)", "Notas"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		t.Fatalf("set header: %v", err)
	}
	first := []any{45000, 120.0, 30.0, 18.5, "primera"}
	if err := f.SetSheetRow(sheet, "A2", &first); err != nil {
		t.Fatalf("set row: %v", err)
	}
	second := []any{"2024-04", "90", nil, "12"}
	if err := f.SetSheetRow(sheet, "A3", &second); err != nil {
		t.Fatalf("set row: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := ReadFile("consumos.xlsx", &buf)
	if err != nil {
		t.Fatalf("read spreadsheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if v, _ := rows[0].Get("Fecha"); v != 45000.0 {
		t.Fatalf("expected numeric serial, got %#v", v)
	}

	batch := newTestNormalizer().NormalizeBatch(rows, "m")
	if len(batch.Readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(batch.Readings))
	}
	if got := batch.Readings[0]; got.Date != "2023-03" || got.Kwh != 120 || got.Solar() != 30 || got.Cost != 18.5 || got.Notes != "primera" {
		t.Fatalf("unexpected first reading %+v", got)
	}
	if got := batch.Readings[1]; got.Date != "2024-04" || got.Kwh != 90 || got.Cost != 12 || got.Solar() != 0 {
		t.Fatalf("unexpected second reading %+v", got)
	}
}

func TestReadSpreadsheetRejectsGarbage(t *testing.T) {
	_, err := ReadSpreadsheet(strings.NewReader("not a workbook"))
	if !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}
}

func TestReadCSVSemicolon(t *testing.T) {
	input := "\ufeffFecha;Consumo;Coste\n2024-01;100;15,3\n\n2024-02;80;12\n"
	rows, err := ReadFile("data.CSV", strings.NewReader(input))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if keys := rows[0].Keys(); keys[0] != "Fecha" {
		t.Fatalf("expected BOM stripped header, got %q", keys[0])
	}
	reading := newTestNormalizer().NormalizeRow(rows[0], "m")
	if reading.Date != "2024-01" || reading.Kwh != 100 || reading.Cost != 15 {
		t.Fatalf("unexpected reading %+v", reading)
	}
}

func TestReadFileUnsupported(t *testing.T) {
	if _, err := ReadFile("data.ods", strings.NewReader("")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
