// Package http exposes the tracker as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"ecotrack/internal/backup"
	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/energy/application"
	"ecotrack/internal/energy/normalize"
	"ecotrack/internal/energy/stats"
	forecast "ecotrack/internal/forecast/domain"
)

const defaultMaxUpload = 10 << 20

// Handler serves the tracker endpoints.
type Handler struct {
	tracker   *application.Tracker
	logger    zerolog.Logger
	clock     energy.Clock
	maxUpload int64
}

// Option configures the handler.
type Option func(*Handler)

// WithLogger sets the access and error logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithClock sets the clock used for download names and range presets.
func WithClock(clock energy.Clock) Option {
	return func(h *Handler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithMaxUpload caps the size of uploaded spreadsheets and backups.
func WithMaxUpload(bytes int64) Option {
	return func(h *Handler) {
		if bytes > 0 {
			h.maxUpload = bytes
		}
	}
}

// NewHandler constructs a Handler.
func NewHandler(tracker *application.Tracker, opts ...Option) (*Handler, error) {
	if tracker == nil {
		return nil, errors.New("energy handler: nil tracker")
	}
	h := &Handler{
		tracker:   tracker,
		logger:    zerolog.Nop(),
		clock:     energy.SystemClock{},
		maxUpload: defaultMaxUpload,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Router registers every route on a new router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.accessLog)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/meters", h.listMeters).Methods(http.MethodGet)
	api.HandleFunc("/meters", h.createMeter).Methods(http.MethodPost)
	api.HandleFunc("/meters/{id}", h.updateMeter).Methods(http.MethodPut)
	api.HandleFunc("/meters/{id}", h.deleteMeter).Methods(http.MethodDelete)
	api.HandleFunc("/meters/{id}/readings", h.listReadings).Methods(http.MethodGet)
	api.HandleFunc("/meters/{id}/readings", h.createReading).Methods(http.MethodPost)
	api.HandleFunc("/meters/{id}/readings", h.clearReadings).Methods(http.MethodDelete)
	api.HandleFunc("/meters/{id}/import", h.importReadings).Methods(http.MethodPost)
	api.HandleFunc("/meters/{id}/export.xlsx", h.exportXLSX).Methods(http.MethodGet)
	api.HandleFunc("/meters/{id}/report.pdf", h.reportPDF).Methods(http.MethodGet)
	api.HandleFunc("/meters/{id}/analysis", h.analyze).Methods(http.MethodPost)
	api.HandleFunc("/readings/{id}", h.deleteReading).Methods(http.MethodDelete)

	api.HandleFunc("/submeters", h.listSubMeters).Methods(http.MethodGet)
	api.HandleFunc("/submeters", h.createSubMeter).Methods(http.MethodPost)
	api.HandleFunc("/submeters/{id}", h.deleteSubMeter).Methods(http.MethodDelete)
	api.HandleFunc("/submeters/{id}/readings", h.listSubReadings).Methods(http.MethodGet)
	api.HandleFunc("/submeters/{id}/readings", h.createSubReading).Methods(http.MethodPost)
	api.HandleFunc("/subreadings/{id}", h.deleteSubReading).Methods(http.MethodDelete)

	api.HandleFunc("/stats/{id}", h.summary).Methods(http.MethodGet)
	api.HandleFunc("/series/{id}", h.series).Methods(http.MethodGet)
	api.HandleFunc("/price", h.price).Methods(http.MethodGet)

	api.HandleFunc("/backup", h.exportBackup).Methods(http.MethodGet)
	api.HandleFunc("/backup", h.restoreBackup).Methods(http.MethodPost)
	api.HandleFunc("/data", h.reset).Methods(http.MethodDelete)
	return r
}

// CORSOptions are the cross-origin settings of the API.
func CORSOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
	}
}

// NewServerHandler returns the router wrapped with CORS handling.
func NewServerHandler(h *Handler, origins []string) http.Handler {
	return cors.New(CORSOptions(origins)).Handler(h.Router())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, energy.ErrMeterNotFound),
		errors.Is(err, energy.ErrSubMeterNotFound),
		errors.Is(err, energy.ErrReadingNotFound):
		return http.StatusNotFound
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrNoCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, forecast.ErrOracle):
		return http.StatusBadGateway
	case errors.Is(err, backup.ErrParse),
		errors.Is(err, backup.ErrFormat),
		errors.Is(err, energy.ErrNoValidRows),
		errors.Is(err, energy.ErrInvalidKwh),
		errors.Is(err, energy.ErrEmptyName),
		errors.Is(err, energy.ErrEmptyID),
		errors.Is(err, energy.ErrInvalidMonth),
		errors.Is(err, normalize.ErrUnreadableFile),
		errors.Is(err, normalize.ErrUnsupportedFormat),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Unwrap() error { return errBadRequest }

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid json")
	}
	return nil
}

// rangeQuery reads start/end bounds, or a named preset when no bound is given.
func (h *Handler) rangeQuery(r *http.Request) (stats.Range, error) {
	q := r.URL.Query()
	if q.Get("start") != "" || q.Get("end") != "" {
		return stats.Range{Start: q.Get("start"), End: q.Get("end")}, nil
	}
	rng, ok := stats.Preset(q.Get("preset"), h.clock.Now())
	if !ok {
		return stats.Range{}, badRequest("preset must be all, 12m or a year")
	}
	return rng, nil
}

func floatQuery(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, badRequest(key + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest(key + " must be a number")
	}
	return v, nil
}

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
}
