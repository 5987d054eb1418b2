package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) listSubMeters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.SubMeters())
}

func (h *Handler) createSubMeter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sub, err := h.tracker.AddSubMeter(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handler) deleteSubMeter(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteSubMeter(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSubReadings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.SubHistory(mux.Vars(r)["id"]))
}

func (h *Handler) createSubReading(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string  `json:"date"`
		Kwh  float64 `json:"kwh"`
		Cost float64 `json:"cost"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	reading, err := h.tracker.AddSubReading(r.Context(), mux.Vars(r)["id"], req.Date, req.Kwh, req.Cost)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reading)
}

func (h *Handler) deleteSubReading(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteSubReading(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
