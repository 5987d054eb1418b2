package http

import (
	"net/http"

	"github.com/gorilla/mux"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/application"
)

type meterRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Handler) listMeters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Meters())
}

func (h *Handler) createMeter(w http.ResponseWriter, r *http.Request) {
	var req meterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	meter, err := h.tracker.AddMeter(r.Context(), req.Name, req.Location)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meter)
}

func (h *Handler) updateMeter(w http.ResponseWriter, r *http.Request) {
	var req meterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	meter, err := h.tracker.UpdateMeter(r.Context(), energy.Meter{
		ID:       mux.Vars(r)["id"],
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meter)
}

func (h *Handler) deleteMeter(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteMeter(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listReadings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.tracker.Meter(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.History(id))
}

func (h *Handler) createReading(w http.ResponseWriter, r *http.Request) {
	var in application.ReadingInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	in.MeterID = mux.Vars(r)["id"]
	reading, err := h.tracker.AddReading(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reading)
}

func (h *Handler) clearReadings(w http.ResponseWriter, r *http.Request) {
	removed, err := h.tracker.ClearHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handler) importReadings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.writeError(w, r, badRequest("expected a multipart upload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, badRequest("file is required"))
		return
	}
	defer file.Close()
	res, err := h.tracker.ImportFile(r.Context(), mux.Vars(r)["id"], header.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) deleteReading(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteReading(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.tracker.Analyze(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
