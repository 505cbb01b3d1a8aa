package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/omnavneet/nerveconnect-sub000/internal/booking"
	"github.com/omnavneet/nerveconnect-sub000/internal/middleware"
	"github.com/omnavneet/nerveconnect-sub000/internal/transcript"
)

type Handler struct {
	svc       *booking.Service
	extractor transcript.Extractor
	ping      func(ctx context.Context) error
	router    *mux.Router
	log       zerolog.Logger
}

// New builds the API surface. ping is used by the health endpoint and may be
// nil when there is no database to check.
func New(svc *booking.Service, ex transcript.Extractor, ping func(ctx context.Context) error, log zerolog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		extractor: ex,
		ping:      ping,
		router:    mux.NewRouter().PathPrefix("/api").Subrouter(),
		log:       log,
	}
}

func (h *Handler) Router() *mux.Router { return h.router }

// RegisterRoutes wires the routes; rl throttles the booking POSTs when set.
func (h *Handler) RegisterRoutes(rl *middleware.RateLimiter) {
	h.router.HandleFunc("/health", h.health).Methods(http.MethodGet)

	book := h.router.PathPrefix("/appointments").Subrouter()
	if rl != nil {
		book.Use(middleware.RateLimit(rl))
	}
	book.HandleFunc("", h.createAppointment).Methods(http.MethodPost)
	book.HandleFunc("/transcript", h.createFromTranscript).Methods(http.MethodPost)

	h.router.HandleFunc("/appointments/{id}", h.getAppointment).Methods(http.MethodGet)
	h.router.HandleFunc("/providers/{name}/appointments", h.providerAppointments).Methods(http.MethodGet)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// cause stays in the log, not in the response
		h.log.Error().Err(err).Msg("request failed")
		msg = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	var (
		ve *booking.ValidationError
		pt *booking.PastTimeError
		ce *booking.ConflictError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &pt):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check")
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
