package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// StaffHandler serves the front-desk console: day schedules, status changes
// and messages.
type StaffHandler struct {
	lifecycle *lifecycle.Service
	clock     availability.Clock
	logger    *slog.Logger
}

func NewStaffHandler(lc *lifecycle.Service, clock availability.Clock, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{lifecycle: lc, clock: clock, logger: logger}
}

type statusRequest struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

type messageRequest struct {
	AppointmentID string `json:"appointment_id"`
	Message       string `json:"message"`
}

func (h *StaffHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = h.clock.Today().Format(model.DateLayout)
	}
	appts, err := h.lifecycle.DaySchedule(r.Context(), doctorID, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentItem(a, h.clock.Location))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *StaffHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	appt, err := h.lifecycle.SetStatus(r.Context(), strings.TrimSpace(req.AppointmentID), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt, h.clock.Location))
}

func (h *StaffHandler) SetMessage(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	appt, err := h.lifecycle.SetMessage(r.Context(), strings.TrimSpace(req.AppointmentID), req.Message)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt, h.clock.Location))
}

func (h *StaffHandler) CanceledArchive(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("appointment_id"))
	if id == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	rec, err := h.lifecycle.CanceledRecord(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	item := toAppointmentItem(rec.Appointment, h.clock.Location)
	item.ArchivedAt = rec.ArchivedAt.UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, item)
}
