package registry

import (
	"context"
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

type Registry struct {
	store  storage.Store
	clock  availability.Clock
	logger *slog.Logger
}

func New(store storage.Store, clock availability.Clock, logger *slog.Logger) *Registry {
	return &Registry{store: store, clock: clock, logger: logger}
}

// Summary counts a doctor's live appointments by status.
type Summary struct {
	DoctorID  string
	Booked    int
	Completed int
	Canceled  int
	Total     int
}

func (r *Registry) List(ctx context.Context) ([]model.Doctor, error) {
	doctors, err := r.store.ListDoctors(ctx)
	if err != nil {
		return nil, storage.DomainError("list doctors", err)
	}
	return doctors, nil
}

func (r *Registry) Get(ctx context.Context, id string) (model.Doctor, error) {
	d, err := r.store.GetDoctor(ctx, id)
	if err != nil {
		return model.Doctor{}, storage.DomainError("get doctor", err)
	}
	return d, nil
}

// Save creates the doctor when d.ID is empty and replaces an existing one
// otherwise.
func (r *Registry) Save(ctx context.Context, d model.Doctor) (model.Doctor, error) {
	d.ID = strings.TrimSpace(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	d.Specialization = strings.TrimSpace(d.Specialization)
	if d.Name == "" || d.Specialization == "" {
		return model.Doctor{}, fmt.Errorf("%w: name and specialization are required", model.ErrValidation)
	}
	weekOffs, err := model.NormalizeWeekOffs(d.WeekOffs)
	if err != nil {
		return model.Doctor{}, err
	}
	d.WeekOffs = weekOffs

	if d.ID != "" {
		if _, err := r.store.GetDoctor(ctx, d.ID); err != nil {
			return model.Doctor{}, storage.DomainError("get doctor", err)
		}
	}
	saved, err := r.store.UpsertDoctor(ctx, d)
	if err != nil {
		return model.Doctor{}, storage.DomainError("save doctor", err)
	}
	r.logger.Info("doctor saved", "doctor_id", saved.ID)
	return saved, nil
}

func (r *Registry) AddWeekOff(ctx context.Context, doctorID, date string) (model.Doctor, error) {
	return r.editWeekOffs(ctx, doctorID, func(offs model.WeekOffs) []string {
		return append(offs, date)
	})
}

func (r *Registry) RemoveWeekOff(ctx context.Context, doctorID, date string) (model.Doctor, error) {
	date = strings.TrimSpace(date)
	return r.editWeekOffs(ctx, doctorID, func(offs model.WeekOffs) []string {
		kept := make([]string, 0, len(offs))
		for _, off := range offs {
			if off != date {
				kept = append(kept, off)
			}
		}
		return kept
	})
}

func (r *Registry) editWeekOffs(ctx context.Context, doctorID string, edit func(model.WeekOffs) []string) (model.Doctor, error) {
	d, err := r.store.GetDoctor(ctx, doctorID)
	if err != nil {
		return model.Doctor{}, storage.DomainError("get doctor", err)
	}
	weekOffs, err := model.NormalizeWeekOffs(edit(d.WeekOffs))
	if err != nil {
		return model.Doctor{}, err
	}
	d.WeekOffs = weekOffs
	saved, err := r.store.UpsertDoctor(ctx, d)
	if err != nil {
		return model.Doctor{}, storage.DomainError("save doctor", err)
	}
	r.logger.Info("doctor week-offs updated", "doctor_id", doctorID, "week_offs", len(weekOffs))
	return saved, nil
}

func (r *Registry) Summary(ctx context.Context, doctorID string) (Summary, error) {
	if _, err := r.store.GetDoctor(ctx, doctorID); err != nil {
		return Summary{}, storage.DomainError("get doctor", err)
	}
	appts, err := r.store.ListAppointments(ctx, storage.AppointmentFilter{DoctorID: doctorID})
	if err != nil {
		return Summary{}, storage.DomainError("list appointments", err)
	}
	sum := Summary{DoctorID: doctorID, Total: len(appts)}
	for _, a := range appts {
		switch a.Status {
		case model.StatusBooked:
			sum.Booked++
		case model.StatusCompleted:
			sum.Completed++
		case model.StatusCanceled:
			sum.Canceled++
		}
	}
	return sum, nil
}

// Delete retires a doctor: completed appointments are copied into the
// retired-doctor archive, every appointment is removed, then the doctor
// record. Each step tolerates work already done, so a failed Delete can be
// re-run from the start.
func (r *Registry) Delete(ctx context.Context, doctorID string) error {
	ctx, span := otelx.Tracer("clinic-service/registry").Start(ctx, "registry.Delete",
		trace.WithAttributes(attribute.String("doctor_id", doctorID)))
	defer span.End()

	if strings.TrimSpace(doctorID) == "" {
		return fmt.Errorf("%w: doctor id is required", model.ErrValidation)
	}

	appts, err := r.store.ListAppointments(ctx, storage.AppointmentFilter{DoctorID: doctorID})
	if err != nil {
		span.RecordError(err)
		return storage.DomainError("list appointments", err)
	}

	now := r.clock.Current()
	archived := 0
	for _, a := range appts {
		if a.Status != model.StatusCompleted {
			continue
		}
		if err := r.store.ArchiveRetiredDoctor(ctx, model.NewArchiveRecord(a, now)); err != nil {
			span.RecordError(err)
			return model.NewStoreError("archive retired appointment", err)
		}
		archived++
	}

	for _, a := range appts {
		if err := r.store.DeleteAppointment(ctx, a.ID); err != nil {
			span.RecordError(err)
			return model.NewStoreError("delete appointment", err)
		}
	}

	if err := r.store.DeleteDoctorRecord(ctx, doctorID); err != nil {
		span.RecordError(err)
		return model.NewStoreError("delete doctor", err)
	}
	r.logger.Info("doctor deleted", "doctor_id", doctorID, "appointments_removed", len(appts), "archived", archived)
	return nil
}
