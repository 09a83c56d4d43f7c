package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by InsertAppointmentIfAbsent when the slot key
	// is already taken.
	ErrConflict = errors.New("slot already taken")
	// ErrStatusChanged is returned by UpdateAppointmentStatus when the stored
	// status no longer equals the expected one.
	ErrStatusChanged = errors.New("appointment status changed concurrently")
)

// SlotKey identifies one bookable hour of one doctor. Date is the calendar
// date in the clinic timezone.
type SlotKey struct {
	DoctorID string
	Date     string
	Hour     int
}

// KeyFor builds the key of slot in slot's own location.
func KeyFor(doctorID string, slot time.Time) SlotKey {
	return SlotKey{DoctorID: doctorID, Date: slot.Format(model.DateLayout), Hour: slot.Hour()}
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%sT%02d", k.DoctorID, k.Date, k.Hour)
}

// AppointmentFilter selects appointments. Zero fields match everything; the
// slot range is half-open [From, To).
type AppointmentFilter struct {
	DoctorID string
	From     time.Time
	To       time.Time
	Status   model.Status
}

func (f AppointmentFilter) Match(a model.Appointment) bool {
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if !f.From.IsZero() && a.Slot.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !a.Slot.Before(f.To) {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// Store is the persistence collaborator of the clinic core. Implementations
// must make InsertAppointmentIfAbsent and UpdateAppointmentStatus atomic.
// A transition to canceled writes the canceled archive entry as part of the
// same atomic step, so a canceled appointment never exists without one.
type Store interface {
	ListDoctors(ctx context.Context) ([]model.Doctor, error)
	GetDoctor(ctx context.Context, id string) (model.Doctor, error)
	// UpsertDoctor assigns an id when d.ID is empty.
	UpsertDoctor(ctx context.Context, d model.Doctor) (model.Doctor, error)
	// DeleteDoctorRecord is a no-op for an absent doctor.
	DeleteDoctorRecord(ctx context.Context, id string) error

	ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	InsertAppointmentIfAbsent(ctx context.Context, key SlotKey, appt model.Appointment) (string, error)
	// DeleteAppointment is a no-op for an absent appointment.
	DeleteAppointment(ctx context.Context, id string) error
	// UpdateAppointmentStatus is a compare-and-set from one status to another;
	// at stamps the event and any archive entry it writes.
	UpdateAppointmentStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (model.Appointment, error)
	SetAppointmentMessage(ctx context.Context, id, text string) (model.Appointment, error)

	// ArchiveRetiredDoctor leaves an existing entry untouched.
	ArchiveRetiredDoctor(ctx context.Context, rec model.ArchiveRecord) error
	GetCanceledArchive(ctx context.Context, appointmentID string) (model.ArchiveRecord, error)
	GetRetiredArchive(ctx context.Context, appointmentID string) (model.ArchiveRecord, error)
}
