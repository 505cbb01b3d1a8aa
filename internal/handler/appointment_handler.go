package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/omnavneet/nerveconnect-sub000/internal/booking"
	"github.com/omnavneet/nerveconnect-sub000/internal/model"
)

type bookRequest struct {
	PatientName  string `json:"patient_name"`
	ProviderName string `json:"provider_name"`
	DateTime     string `json:"datetime"`
}

type bookResponse struct {
	AppointmentID       string    `json:"appointment_id"`
	ConfirmationMessage string    `json:"confirmation_message"`
	StartTime           time.Time `json:"start_time"`
}

type transcriptRequest struct {
	Transcript string `json:"transcript"`
}

type appointmentDTO struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	PatientID  string    `json:"patient_id"`
	StartTime  time.Time `json:"start_time"`
	CreatedAt  time.Time `json:"created_at"`
}

func toDTO(a *model.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:         a.ID,
		ProviderID: a.ProviderID,
		PatientID:  a.PatientID,
		StartTime:  a.StartTime,
		CreatedAt:  a.CreatedAt,
	}
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &booking.ValidationError{Reason: "invalid request body"})
		return
	}
	h.book(w, r, booking.Request{
		PatientName:  req.PatientName,
		ProviderName: req.ProviderName,
		DateTime:     req.DateTime,
	})
}

// createFromTranscript extracts fields from free text and runs them through
// the same booking path as structured input; missing fields fail validation
// there, not here.
func (h *Handler) createFromTranscript(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &booking.ValidationError{Reason: "invalid request body"})
		return
	}
	if req.Transcript == "" {
		h.writeError(w, &booking.ValidationError{Reason: "transcript is required"})
		return
	}

	fields, err := h.extractor.Extract(r.Context(), req.Transcript)
	if err != nil {
		h.log.Warn().Err(err).Msg("transcript extraction failed")
		h.writeError(w, &booking.ValidationError{Reason: "could not understand transcript"})
		return
	}

	h.book(w, r, booking.Request{
		PatientName:  fields.PatientName,
		ProviderName: fields.ProviderName,
		DateTime:     fields.DateTime,
	})
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request, req booking.Request) {
	conf, err := h.svc.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, bookResponse{
		AppointmentID:       conf.AppointmentID,
		ConfirmationMessage: conf.Message,
		StartTime:           conf.StartTime,
	})
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	apt, err := h.svc.Appointment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toDTO(apt))
}

func (h *Handler) providerAppointments(w http.ResponseWriter, r *http.Request) {
	apts, err := h.svc.ProviderSchedule(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]appointmentDTO, len(apts))
	for i := range apts {
		out[i] = toDTO(&apts[i])
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}
