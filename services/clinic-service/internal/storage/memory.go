package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// MemoryStore keeps everything in maps behind one mutex. It backs tests and
// STORE=memory development runs.
type MemoryStore struct {
	mu           sync.Mutex
	doctors      map[string]model.Doctor
	appointments map[string]model.Appointment
	slots        map[SlotKey]string
	keys         map[string]SlotKey
	canceled     map[string]model.ArchiveRecord
	retired      map[string]model.ArchiveRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		doctors:      map[string]model.Doctor{},
		appointments: map[string]model.Appointment{},
		slots:        map[SlotKey]string{},
		keys:         map[string]SlotKey{},
		canceled:     map[string]model.ArchiveRecord{},
		retired:      map[string]model.ArchiveRecord{},
	}
}

func (s *MemoryStore) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		out = append(out, cloneDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetDoctor(ctx context.Context, id string) (model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doctors[id]
	if !ok {
		return model.Doctor{}, ErrNotFound
	}
	return cloneDoctor(d), nil
}

func (s *MemoryStore) UpsertDoctor(ctx context.Context, d model.Doctor) (model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d = cloneDoctor(d)
	s.doctors[d.ID] = d
	return cloneDoctor(d), nil
}

func (s *MemoryStore) DeleteDoctorRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.doctors, id)
	return nil
}

func (s *MemoryStore) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Appointment
	for _, a := range s.appointments {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Slot.Equal(out[j].Slot) {
			return out[i].Slot.Before(out[j].Slot)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) InsertAppointmentIfAbsent(ctx context.Context, key SlotKey, appt model.Appointment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slots[key]; taken {
		return "", ErrConflict
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	s.appointments[appt.ID] = appt
	s.slots[key] = appt.ID
	s.keys[appt.ID] = key
	return appt.ID, nil
}

func (s *MemoryStore) DeleteAppointment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.keys[id]; ok {
		delete(s.slots, key)
		delete(s.keys, id)
	}
	delete(s.appointments, id)
	return nil
}

func (s *MemoryStore) UpdateAppointmentStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if a.Status != from {
		return a, ErrStatusChanged
	}
	a.Status = to
	s.appointments[id] = a
	if _, archived := s.canceled[id]; to == model.StatusCanceled && !archived {
		s.canceled[id] = model.NewArchiveRecord(a, at)
	}
	return a, nil
}

func (s *MemoryStore) SetAppointmentMessage(ctx context.Context, id, text string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	a.Message = text
	s.appointments[id] = a
	return a, nil
}

func (s *MemoryStore) ArchiveRetiredDoctor(ctx context.Context, rec model.ArchiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.retired[rec.ID]; !ok {
		s.retired[rec.ID] = rec
	}
	return nil
}

func (s *MemoryStore) GetCanceledArchive(ctx context.Context, appointmentID string) (model.ArchiveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.canceled[appointmentID]
	if !ok {
		return model.ArchiveRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) GetRetiredArchive(ctx context.Context, appointmentID string) (model.ArchiveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.retired[appointmentID]
	if !ok {
		return model.ArchiveRecord{}, ErrNotFound
	}
	return rec, nil
}

func cloneDoctor(d model.Doctor) model.Doctor {
	if d.WeekOffs != nil {
		d.WeekOffs = append(model.WeekOffs(nil), d.WeekOffs...)
	}
	return d
}
