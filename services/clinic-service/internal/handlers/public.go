package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/booking"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/registry"
)

// PublicHandler serves the patient-facing booking flow.
type PublicHandler struct {
	registry    *registry.Registry
	coordinator *booking.Coordinator
	lifecycle   *lifecycle.Service
	clock       availability.Clock
	logger      *slog.Logger
}

func NewPublicHandler(reg *registry.Registry, coordinator *booking.Coordinator, lc *lifecycle.Service, clock availability.Clock, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{registry: reg, coordinator: coordinator, lifecycle: lc, clock: clock, logger: logger}
}

type bookRequest struct {
	DoctorID     string `json:"doctor_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone"`
	PatientEmail string `json:"patient_email"`
}

type slotItem struct {
	Time  string `json:"time"`
	Start string `json:"start"`
	State string `json:"state"`
}

type slotsResponse struct {
	DoctorID  string     `json:"doctor_id"`
	Date      string     `json:"date"`
	Available int        `json:"available"`
	Slots     []slotItem `json:"slots"`
}

func (h *PublicHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	doctors, err := h.registry.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]doctorItem, 0, len(doctors))
	for _, d := range doctors {
		items = append(items, toDoctorItem(d))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if doctorID == "" || dateStr == "" {
		http.Error(w, "doctor_id and date are required", http.StatusBadRequest)
		return
	}
	date, err := h.clock.ParseDate(dateStr)
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: date %q is not YYYY-MM-DD", model.ErrValidation, dateStr))
		return
	}

	doctor, err := h.registry.Get(r.Context(), doctorID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	appts, err := h.lifecycle.DaySchedule(r.Context(), doctorID, dateStr)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	slots := availability.Compute(doctor, date, appts, h.clock.Current())
	resp := slotsResponse{DoctorID: doctorID, Date: dateStr, Slots: make([]slotItem, 0, len(slots))}
	for _, s := range slots {
		if s.State == availability.StateAvailable {
			resp.Available++
		}
		resp.Slots = append(resp.Slots, slotItem{
			Time:  s.Time.String(),
			Start: s.Start.Format(time.RFC3339),
			State: string(s.State),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	appt, err := h.coordinator.Book(r.Context(), booking.Request{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		SlotTime: req.Time,
		Patient: model.Patient{
			Name:  req.PatientName,
			Phone: req.PatientPhone,
			Email: req.PatientEmail,
		},
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentItem(appt, h.clock.Location))
}
