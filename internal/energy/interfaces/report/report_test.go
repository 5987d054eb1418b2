package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/normalize"
	"ecotrack/internal/energy/stats"
)

func sampleReadings() []energy.Reading {
	return []energy.Reading{
		{ID: "r1", MeterID: "m1", Date: "2024-03", Kwh: 120, SolarKwh: energy.Float(30), Cost: 18.5, Notes: "Factura marzo"},
		{ID: "r2", MeterID: "m1", Date: "2024-04", Kwh: 95.5, Cost: 14.2},
	}
}

func TestBuildReadingsXLSXLayout(t *testing.T) {
	data, err := BuildReadingsXLSX(sampleReadings())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("expected single %s sheet, got %v", SheetName, sheets)
	}
	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][6] != "Coste Teórico (Sin Solar) (€)" {
		t.Fatalf("unexpected header %q", rows[0][6])
	}
	if rows[1][3] != "150" || rows[1][4] != "0.2" {
		t.Fatalf("unexpected derived cells %v", rows[1])
	}
}

func TestBuildReadingsXLSXReimports(t *testing.T) {
	data, err := BuildReadingsXLSX(sampleReadings())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	rows, err := normalize.ReadSpreadsheet(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	clock := energy.FixedClock{At: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)}
	batch := normalize.NewNormalizer(normalize.WithClock(clock)).NormalizeBatch(rows, "m2")
	if len(batch.Readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(batch.Readings))
	}
	for i, want := range sampleReadings() {
		got := batch.Readings[i]
		if got.Date != want.Date || got.Kwh != want.Kwh || got.Solar() != want.Solar() || got.Cost != want.Cost || got.Notes != want.Notes {
			t.Fatalf("row %d: expected %+v, got %+v", i, want, got)
		}
		if got.MeterID != "m2" {
			t.Fatalf("expected target meter id, got %q", got.MeterID)
		}
	}
}

func TestBuildSummaryPDF(t *testing.T) {
	points := stats.FromReadings(sampleReadings())
	data, err := BuildSummaryPDF("Casa Madrid", stats.Summarize(points), points, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected a PDF document")
	}
}

func TestExportFileName(t *testing.T) {
	now := time.Date(2024, time.June, 1, 15, 0, 0, 0, time.UTC)
	if got := ExportFileName("Casa  de campo", now); got != "Estudio_Energetico_Casa_de_campo_2024-06-01.xlsx" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := ExportFileName("", now); got != "Estudio_Energetico_Consumo_2024-06-01.xlsx" {
		t.Fatalf("unexpected default name %q", got)
	}
	if got := PDFFileName("Casa", now); got != "Estudio_Energetico_Casa_2024-06-01.pdf" {
		t.Fatalf("unexpected pdf name %q", got)
	}
}
