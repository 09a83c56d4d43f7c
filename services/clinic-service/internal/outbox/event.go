package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

const (
	TopicAppointmentBooked    = "clinic.appointment.booked.v1"
	TopicAppointmentCompleted = "clinic.appointment.completed.v1"
	TopicAppointmentCanceled  = "clinic.appointment.canceled.v1"
	TopicDoctorDeleted        = "clinic.doctor.deleted.v1"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	DoctorID      string    `json:"doctor_id"`
	Slot          time.Time `json:"slot"`
	Status        string    `json:"status"`
	PatientName   string    `json:"patient_name"`
	PatientEmail  string    `json:"patient_email"`
	PatientPhone  string    `json:"patient_phone"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type DoctorPayload struct {
	DoctorID   string    `json:"doctor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TopicForStatus maps an appointment status to its event topic.
func TopicForStatus(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return TopicAppointmentCompleted
	case model.StatusCanceled:
		return TopicAppointmentCanceled
	default:
		return TopicAppointmentBooked
	}
}

func AppointmentEvent(appt model.Appointment, at time.Time) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		Slot:          appt.Slot.UTC(),
		Status:        string(appt.Status),
		PatientName:   appt.PatientName,
		PatientEmail:  appt.PatientEmail,
		PatientPhone:  appt.PatientPhone,
		OccurredAt:    at.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   appt.ID,
		EventType:     TopicForStatus(appt.Status),
		Payload:       payload,
	}, nil
}

func DoctorDeletedEvent(doctorID string, at time.Time) (Event, error) {
	payload, err := json.Marshal(DoctorPayload{DoctorID: doctorID, OccurredAt: at.UTC()})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateDoctor,
		AggregateID:   doctorID,
		EventType:     TopicDoctorDeleted,
		Payload:       payload,
	}, nil
}
