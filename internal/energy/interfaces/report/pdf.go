package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"ecotrack/internal/energy/stats"
)

// BuildSummaryPDF renders a one page study: the aggregate figures followed by
// the monthly series.
func BuildSummaryPDF(title string, summary stats.Summary, points []stats.Point, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, tr("Estudio energético: "+title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	lines := []string{
		fmt.Sprintf("Readings: %d", summary.Count),
		fmt.Sprintf("Grid consumption (kWh): %.2f", summary.TotalKwh),
		fmt.Sprintf("Solar production (kWh): %.2f", summary.TotalSolar),
		fmt.Sprintf("Total cost (€): %.2f", summary.TotalCost),
		fmt.Sprintf("Average monthly cost (€): %.2f", summary.AvgCost),
		fmt.Sprintf("Average price (€/kWh): %.4f", summary.AvgPricePerKwh),
		fmt.Sprintf("Estimated solar savings (€): %.2f", summary.EstimatedSavings),
	}
	for _, line := range lines {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	widths := []float64{25, 30, 30, 30, 25, 30}
	headers := []string{"Month", "Grid (kWh)", "Solar (kWh)", "Real (kWh)", "Savings %", "Cost (€)"}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, p := range points {
		d := stats.Derive(p)
		pdf.CellFormat(widths[0], 6, p.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.2f", p.Kwh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.2f", p.SolarKwh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.2f", d.RealConsumption), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.1f", d.SavingsPercent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, fmt.Sprintf("%.2f", p.Cost), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
