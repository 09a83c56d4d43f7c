package model

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

func (s Status) Valid() bool {
	return s == StatusBooked || s.Terminal()
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	// "cancelled" is accepted on input; storage always uses one l.
	if s == "cancelled" {
		s = StatusCanceled
	}
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
	}
	return s, nil
}

// Patient contact details captured at booking time.
type Patient struct {
	Name  string
	Phone string
	Email string
}

// Appointment carries the doctor's name and specialization as they were when
// the booking was made, so later doctor edits do not rewrite history.
type Appointment struct {
	ID                   string
	DoctorID             string
	Slot                 time.Time
	Status               Status
	Message              string
	PatientName          string
	PatientPhone         string
	PatientEmail         string
	DoctorName           string
	DoctorSpecialization string
	CreatedAt            time.Time
}

// ArchiveRecord is an immutable copy of an appointment keyed by its id.
type ArchiveRecord struct {
	Appointment
	ArchivedAt time.Time
}

func NewArchiveRecord(appt Appointment, at time.Time) ArchiveRecord {
	return ArchiveRecord{Appointment: appt, ArchivedAt: at.UTC()}
}
