package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	otelx "github.com/md-rashed-zaman/clinicbook/libs/otel"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Request struct {
	DoctorID string
	Date     string // YYYY-MM-DD in the clinic timezone
	SlotTime string // HH:MM, must be a catalog slot
	Patient  model.Patient
}

// Coordinator validates booking requests and creates Booked appointments.
// Double-booking is prevented by the store's insert-if-absent; the core holds
// no locks.
type Coordinator struct {
	store  storage.Store
	clock  availability.Clock
	logger *slog.Logger
}

func NewCoordinator(store storage.Store, clock availability.Clock, logger *slog.Logger) *Coordinator {
	return &Coordinator{store: store, clock: clock, logger: logger}
}

func (c *Coordinator) Book(ctx context.Context, req Request) (model.Appointment, error) {
	ctx, span := otelx.Tracer("clinic-service/booking").Start(ctx, "booking.Book",
		trace.WithAttributes(attribute.String("doctor_id", req.DoctorID), attribute.String("date", req.Date)))
	defer span.End()

	appt, err := c.book(ctx, req)
	if err != nil {
		span.RecordError(err)
		return model.Appointment{}, err
	}
	return appt, nil
}

func (c *Coordinator) book(ctx context.Context, req Request) (model.Appointment, error) {
	req = normalize(req)
	date, slot, err := c.validate(req)
	if err != nil {
		return model.Appointment{}, err
	}

	now := c.clock.Current()
	if date.Before(availability.StartOfDay(now)) {
		return model.Appointment{}, fmt.Errorf("%w: %s", model.ErrPastDate, req.Date)
	}
	start := slot.On(date)
	if start.Before(now) {
		return model.Appointment{}, fmt.Errorf("%w: %s %s has already started", model.ErrPastDate, req.Date, slot)
	}

	doctor, err := c.store.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return model.Appointment{}, storage.DomainError("get doctor", err)
	}
	if doctor.WeekOffs.Contains(date) {
		return model.Appointment{}, fmt.Errorf("%w: %s", model.ErrWeekOff, req.Date)
	}

	existing, err := c.store.ListAppointments(ctx, storage.AppointmentFilter{
		DoctorID: doctor.ID,
		From:     date,
		To:       date.AddDate(0, 0, 1),
	})
	if err != nil {
		return model.Appointment{}, storage.DomainError("list appointments", err)
	}
	for _, s := range availability.Compute(doctor, date, existing, now) {
		if s.Time == slot && s.State == availability.StateBooked {
			return model.Appointment{}, fmt.Errorf("%w: %s %s", model.ErrSlotConflict, req.Date, slot)
		}
	}

	appt := model.Appointment{
		DoctorID:             doctor.ID,
		Slot:                 start,
		Status:               model.StatusBooked,
		PatientName:          req.Patient.Name,
		PatientPhone:         req.Patient.Phone,
		PatientEmail:         req.Patient.Email,
		DoctorName:           doctor.Name,
		DoctorSpecialization: doctor.Specialization,
		CreatedAt:            now.UTC(),
	}
	id, err := c.store.InsertAppointmentIfAbsent(ctx, storage.KeyFor(doctor.ID, start), appt)
	if errors.Is(err, storage.ErrConflict) {
		return model.Appointment{}, fmt.Errorf("%w: %s %s", model.ErrSlotConflict, req.Date, slot)
	}
	if err != nil {
		return model.Appointment{}, storage.DomainError("insert appointment", err)
	}
	appt.ID = id

	c.logger.Info("appointment booked", "appointment_id", id, "doctor_id", doctor.ID, "slot", start)
	return appt, nil
}
