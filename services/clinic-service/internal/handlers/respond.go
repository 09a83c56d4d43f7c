package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// StatusFor maps the clinic error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrPastDate), errors.Is(err, model.ErrWeekOff):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrSlotConflict),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

type appointmentItem struct {
	AppointmentID        string `json:"appointment_id"`
	DoctorID             string `json:"doctor_id"`
	Date                 string `json:"date"`
	Time                 string `json:"time"`
	Slot                 string `json:"slot"`
	Status               string `json:"status"`
	Message              string `json:"message,omitempty"`
	PatientName          string `json:"patient_name"`
	PatientPhone         string `json:"patient_phone"`
	PatientEmail         string `json:"patient_email"`
	DoctorName           string `json:"doctor_name"`
	DoctorSpecialization string `json:"doctor_specialization"`
	CreatedAt            string `json:"created_at"`
	ArchivedAt           string `json:"archived_at,omitempty"`
}

func toAppointmentItem(a model.Appointment, loc *time.Location) appointmentItem {
	slot := a.Slot.In(loc)
	return appointmentItem{
		AppointmentID:        a.ID,
		DoctorID:             a.DoctorID,
		Date:                 slot.Format(model.DateLayout),
		Time:                 slot.Format("15:04"),
		Slot:                 slot.Format(time.RFC3339),
		Status:               string(a.Status),
		Message:              a.Message,
		PatientName:          a.PatientName,
		PatientPhone:         a.PatientPhone,
		PatientEmail:         a.PatientEmail,
		DoctorName:           a.DoctorName,
		DoctorSpecialization: a.DoctorSpecialization,
		CreatedAt:            a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type doctorItem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	WeekOffs       []string `json:"week_offs"`
}

func toDoctorItem(d model.Doctor) doctorItem {
	offs := []string(d.WeekOffs)
	if offs == nil {
		offs = []string{}
	}
	return doctorItem{ID: d.ID, Name: d.Name, Specialization: d.Specialization, WeekOffs: offs}
}
