package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/registry"
)

// DoctorHandler serves the admin doctor registry.
type DoctorHandler struct {
	registry *registry.Registry
	logger   *slog.Logger
}

func NewDoctorHandler(reg *registry.Registry, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{registry: reg, logger: logger}
}

type saveDoctorRequest struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	WeekOffs       []string `json:"week_offs"`
}

type weekOffRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Action   string `json:"action"` // "add" or "remove"
}

type deleteDoctorRequest struct {
	DoctorID string `json:"doctor_id"`
}

type summaryResponse struct {
	DoctorID  string `json:"doctor_id"`
	Booked    int    `json:"booked"`
	Completed int    `json:"completed"`
	Canceled  int    `json:"canceled"`
	Total     int    `json:"total"`
}

// Doctors lists on GET (or returns one doctor when ?id= is set) and saves on
// POST.
func (h *DoctorHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.save(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DoctorHandler) get(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		d, err := h.registry.Get(r.Context(), id)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorItem(d))
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

func (h *DoctorHandler) save(w http.ResponseWriter, r *http.Request) {
	var req saveDoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created := strings.TrimSpace(req.ID) == ""
	d, err := h.registry.Save(r.Context(), model.Doctor{
		ID:             req.ID,
		Name:           req.Name,
		Specialization: req.Specialization,
		WeekOffs:       req.WeekOffs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toDoctorItem(d))
}

func (h *DoctorHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	if id == "" {
		http.Error(w, "doctor_id required", http.StatusBadRequest)
		return
	}
	sum, err := h.registry.Summary(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		DoctorID:  sum.DoctorID,
		Booked:    sum.Booked,
		Completed: sum.Completed,
		Canceled:  sum.Canceled,
		Total:     sum.Total,
	})
}

func (h *DoctorHandler) WeekOffs(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req weekOffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		d   model.Doctor
		err error
	)
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "", "add":
		d, err = h.registry.AddWeekOff(r.Context(), req.DoctorID, req.Date)
	case "remove":
		d, err = h.registry.RemoveWeekOff(r.Context(), req.DoctorID, req.Date)
	default:
		http.Error(w, "action must be add or remove", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorItem(d))
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req deleteDoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.registry.Delete(r.Context(), strings.TrimSpace(req.DoctorID)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
