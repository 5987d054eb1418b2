package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ecotrack/internal/energy/interfaces/report"
	"ecotrack/internal/energy/stats"
	"ecotrack/internal/observability/metrics"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.tracker.Summary(mux.Vars(r)["id"], rng)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type seriesPoint struct {
	stats.Point
	stats.Derived
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	points, err := h.tracker.Series(mux.Vars(r)["id"], rng)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, seriesPoint{Point: p, Derived: stats.Derive(p)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) price(w http.ResponseWriter, r *http.Request) {
	kwh, err := floatQuery(r, "kwh")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.EstimateCost(r.Context(), r.URL.Query().Get("date"), kwh))
}

func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := mux.Vars(r)["id"]
	meter, err := h.tracker.Meter(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := report.BuildReadingsXLSX(h.tracker.History(id))
	metrics.ObserveExport("xlsx", metrics.Result(err), time.Since(start))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	attachment(w, xlsxContentType, report.ExportFileName(meter.Name, h.clock.Now()))
	_, _ = w.Write(data)
}

func (h *Handler) reportPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := mux.Vars(r)["id"]
	meter, err := h.tracker.Meter(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rng, err := h.rangeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	points, err := h.tracker.Series(id, rng)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := report.BuildSummaryPDF(meter.Name, stats.Summarize(points), points, h.clock.Now())
	metrics.ObserveExport("pdf", metrics.Result(err), time.Since(start))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	attachment(w, pdfContentType, report.PDFFileName(meter.Name, h.clock.Now()))
	_, _ = w.Write(data)
}

func (h *Handler) exportBackup(w http.ResponseWriter, r *http.Request) {
	text, err := h.tracker.Export()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	attachment(w, "application/json", h.tracker.BackupFileName())
	_, _ = io.WriteString(w, text)
}

func (h *Handler) restoreBackup(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		h.writeError(w, r, badRequest("backup too large or unreadable"))
		return
	}
	payload, err := h.tracker.Restore(r.Context(), string(body))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"collections": payload.Collections(),
		"meters":      len(payload.Dataset.Meters),
		"readings":    len(payload.Dataset.Readings),
		"subMeters":   len(payload.Dataset.SubMeters),
		"subReadings": len(payload.Dataset.SubReadings),
	})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Reset(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
