// Package report renders meter readings as downloadable spreadsheets and PDF
// studies.
package report

import (
	"bytes"
	"fmt"
	"regexp"
	"time"

	"github.com/xuri/excelize/v2"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/stats"
)

// SheetName is the name of the exported readings sheet.
const SheetName = "Consumos"

// Columns of the readings sheet. The headers are chosen so that the
// normalizer maps them back onto the same fields on re-import.
var Columns = []string{
	"Fecha",
	"Consumo Red (kWh)",
	"Producción Solar (kWh)",
	"Consumo Real (kWh)",
	"Ahorro (%)",
	"Coste Pagado (€)",
	"Coste Teórico (Sin Solar) (€)",
	"Notas",
}

// BuildReadingsXLSX renders readings, one row each, with their derived values.
// The savings column holds a fraction formatted as a percentage.
func BuildReadingsXLSX(readings []energy.Reading) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, err
	}

	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return nil, err
	}

	for i, r := range readings {
		d := stats.DeriveReading(r)
		row := i + 2
		values := []any{
			r.Date,
			r.Kwh,
			r.Solar(),
			d.RealConsumption,
			d.SavingsPercent / 100,
			r.Cost,
			d.TheoreticalCost,
			r.Notes,
		}
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
		cell := fmt.Sprintf("E%d", row)
		_ = f.SetCellStyle(SheetName, cell, cell, percent)
	}
	_ = f.SetColWidth(SheetName, "A", "A", 10)
	_ = f.SetColWidth(SheetName, "B", "G", 18)
	_ = f.SetColWidth(SheetName, "H", "H", 30)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var whitespace = regexp.MustCompile(`\s+`)

// ExportFileName is the download name of a meter's readings sheet.
func ExportFileName(meterName string, now time.Time) string {
	if meterName == "" {
		meterName = "Consumo"
	}
	return "Estudio_Energetico_" + whitespace.ReplaceAllString(meterName, "_") + "_" + now.UTC().Format("2006-01-02") + ".xlsx"
}

// PDFFileName is the download name of a meter's summary study.
func PDFFileName(meterName string, now time.Time) string {
	name := ExportFileName(meterName, now)
	return name[:len(name)-len(".xlsx")] + ".pdf"
}
