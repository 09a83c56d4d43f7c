package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	otelx "github.com/md-rashed-zaman/clinicbook/libs/otel"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Service moves appointments from Booked to a terminal status and manages
// the staff message attached to terminal appointments.
type Service struct {
	store  storage.Store
	clock  availability.Clock
	logger *slog.Logger
}

func NewService(store storage.Store, clock availability.Clock, logger *slog.Logger) *Service {
	return &Service{store: store, clock: clock, logger: logger}
}

// SetStatus applies booked -> completed or booked -> canceled. The store
// writes the canceled archive entry together with the status change, so a
// failed call leaves the appointment booked and can simply be retried.
func (s *Service) SetStatus(ctx context.Context, id string, target model.Status) (model.Appointment, error) {
	ctx, span := otelx.Tracer("clinic-service/lifecycle").Start(ctx, "lifecycle.SetStatus",
		trace.WithAttributes(attribute.String("appointment_id", id), attribute.String("status", string(target))))
	defer span.End()

	current, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, storage.DomainError("get appointment", err)
	}
	if !target.Terminal() {
		return current, fmt.Errorf("%w: cannot move to %q", model.ErrInvalidTransition, target)
	}
	if current.Status.Terminal() {
		return current, fmt.Errorf("%w: appointment is already %s", model.ErrInvalidTransition, current.Status)
	}

	updated, err := s.store.UpdateAppointmentStatus(ctx, id, model.StatusBooked, target, s.clock.Current())
	switch {
	case errors.Is(err, storage.ErrStatusChanged):
		s.logger.Warn("status changed concurrently", "appointment_id", id, "target", target)
		return current, fmt.Errorf("%w: appointment left booked concurrently", model.ErrInvalidTransition)
	case err != nil:
		span.RecordError(err)
		return model.Appointment{}, storage.DomainError("update appointment status", err)
	}

	s.logger.Info("appointment status changed", "appointment_id", id, "status", target)
	return updated, nil
}

// SetMessage overwrites the staff message on a terminal appointment.
func (s *Service) SetMessage(ctx context.Context, id, text string) (model.Appointment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Appointment{}, fmt.Errorf("%w: message is required", model.ErrValidation)
	}

	current, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, storage.DomainError("get appointment", err)
	}
	if !current.Status.Terminal() {
		return current, fmt.Errorf("%w: messages can only be attached to completed or canceled appointments", model.ErrInvalidState)
	}

	updated, err := s.store.SetAppointmentMessage(ctx, id, text)
	if err != nil {
		return model.Appointment{}, storage.DomainError("set appointment message", err)
	}
	s.logger.Info("appointment message set", "appointment_id", id)
	return updated, nil
}

// DaySchedule lists a doctor's appointments of every status on one clinic
// date, ordered by slot.
func (s *Service) DaySchedule(ctx context.Context, doctorID, date string) ([]model.Appointment, error) {
	day, err := s.clock.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", model.ErrValidation, date)
	}
	if strings.TrimSpace(doctorID) == "" {
		return nil, fmt.Errorf("%w: doctor id is required", model.ErrValidation)
	}
	appts, err := s.store.ListAppointments(ctx, storage.AppointmentFilter{
		DoctorID: doctorID,
		From:     day,
		To:       day.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, storage.DomainError("list appointments", err)
	}
	return appts, nil
}

func (s *Service) CanceledRecord(ctx context.Context, appointmentID string) (model.ArchiveRecord, error) {
	rec, err := s.store.GetCanceledArchive(ctx, appointmentID)
	if err != nil {
		return model.ArchiveRecord{}, storage.DomainError("get canceled archive", err)
	}
	return rec, nil
}
