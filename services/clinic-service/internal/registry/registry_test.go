package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

var now = time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)

func newTestRegistry(store storage.Store) *Registry {
	clock := availability.Clock{Location: time.UTC, Now: func() time.Time { return now }}
	return New(store, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func addAppointment(t *testing.T, store storage.Store, doctorID string, hour int, status model.Status) string {
	t.Helper()
	ctx := context.Background()
	slot := time.Date(2024, 6, 11, hour, 0, 0, 0, time.UTC)
	id, err := store.InsertAppointmentIfAbsent(ctx, storage.KeyFor(doctorID, slot), model.Appointment{
		DoctorID: doctorID, Slot: slot, Status: model.StatusBooked, PatientName: "Rumi",
	})
	if err != nil {
		t.Fatalf("insert appointment: %v", err)
	}
	if status != model.StatusBooked {
		if _, err := store.UpdateAppointmentStatus(ctx, id, model.StatusBooked, status, slot); err != nil {
			t.Fatalf("update status: %v", err)
		}
	}
	return id
}

func TestSaveValidatesAndNormalizes(t *testing.T) {
	r := newTestRegistry(storage.NewMemoryStore())
	ctx := context.Background()

	if _, err := r.Save(ctx, model.Doctor{Name: "Dr. Amin"}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := r.Save(ctx, model.Doctor{Name: "Dr. Amin", Specialization: "ENT", WeekOffs: model.WeekOffs{"Friday"}}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for weekday name, got %v", err)
	}

	d, err := r.Save(ctx, model.Doctor{Name: " Dr. Amin ", Specialization: "ENT", WeekOffs: model.WeekOffs{"2024-06-14", "2024-06-07", "2024-06-14"}})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if d.ID == "" || d.Name != "Dr. Amin" || len(d.WeekOffs) != 2 || d.WeekOffs[0] != "2024-06-07" {
		t.Fatalf("unexpected doctor %+v", d)
	}

	d.Specialization = "Otolaryngology"
	updated, err := r.Save(ctx, d)
	if err != nil || updated.ID != d.ID || updated.Specialization != "Otolaryngology" {
		t.Fatalf("update failed: %+v err=%v", updated, err)
	}
	if _, err := r.Save(ctx, model.Doctor{ID: "ghost", Name: "x", Specialization: "y"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating unknown doctor, got %v", err)
	}

	list, _ := r.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 doctor, got %d", len(list))
	}
}

func TestWeekOffEdits(t *testing.T) {
	r := newTestRegistry(storage.NewMemoryStore())
	ctx := context.Background()
	d, _ := r.Save(ctx, model.Doctor{Name: "Dr. Sultana", Specialization: "Dermatology"})

	d, err := r.AddWeekOff(ctx, d.ID, "2024-06-21")
	if err != nil || len(d.WeekOffs) != 1 {
		t.Fatalf("AddWeekOff failed: %+v err=%v", d, err)
	}
	d, _ = r.AddWeekOff(ctx, d.ID, "2024-06-21")
	if len(d.WeekOffs) != 1 {
		t.Fatalf("duplicate week-off stored: %v", d.WeekOffs)
	}
	if _, err := r.AddWeekOff(ctx, d.ID, "21-06-2024"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	d, err = r.RemoveWeekOff(ctx, d.ID, "2024-06-21")
	if err != nil || len(d.WeekOffs) != 0 {
		t.Fatalf("RemoveWeekOff failed: %+v err=%v", d, err)
	}
	if _, err := r.AddWeekOff(ctx, "ghost", "2024-06-21"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	store := storage.NewMemoryStore()
	r := newTestRegistry(store)
	ctx := context.Background()
	d, _ := r.Save(ctx, model.Doctor{Name: "Dr. Kabir", Specialization: "Neurology"})
	addAppointment(t, store, d.ID, 10, model.StatusCompleted)
	addAppointment(t, store, d.ID, 11, model.StatusCompleted)
	addAppointment(t, store, d.ID, 12, model.StatusCanceled)
	addAppointment(t, store, d.ID, 14, model.StatusBooked)

	sum, err := r.Summary(ctx, d.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Completed != 2 || sum.Canceled != 1 || sum.Booked != 1 || sum.Total != 4 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestDeleteArchivesCompletedAndIsRerunnable(t *testing.T) {
	store := storage.NewMemoryStore()
	r := newTestRegistry(store)
	ctx := context.Background()
	d, _ := r.Save(ctx, model.Doctor{Name: "Dr. Rezaul", Specialization: "Orthopedics"})
	other, _ := r.Save(ctx, model.Doctor{Name: "Dr. Other", Specialization: "GP"})

	completed := addAppointment(t, store, d.ID, 10, model.StatusCompleted)
	canceled := addAppointment(t, store, d.ID, 11, model.StatusCanceled)
	addAppointment(t, store, d.ID, 12, model.StatusBooked)
	kept := addAppointment(t, store, other.ID, 10, model.StatusBooked)

	for i := 0; i < 2; i++ {
		if err := r.Delete(ctx, d.ID); err != nil {
			t.Fatalf("Delete run %d failed: %v", i+1, err)
		}
	}

	rec, err := store.GetRetiredArchive(ctx, completed)
	if err != nil || rec.Status != model.StatusCompleted || !rec.ArchivedAt.Equal(now) {
		t.Fatalf("completed appointment not archived: %+v err=%v", rec, err)
	}
	if _, err := store.GetRetiredArchive(ctx, canceled); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("only completed appointments are archived, got %v", err)
	}
	left, _ := store.ListAppointments(ctx, storage.AppointmentFilter{DoctorID: d.ID})
	if len(left) != 0 {
		t.Fatalf("expected no appointments left, got %d", len(left))
	}
	if _, err := r.Get(ctx, d.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected doctor gone, got %v", err)
	}
	if _, err := store.GetAppointment(ctx, kept); err != nil {
		t.Fatalf("other doctor's appointment must survive: %v", err)
	}
}

type flakyDeleteStore struct {
	*storage.MemoryStore
	failures int
}

func (f *flakyDeleteStore) DeleteAppointment(ctx context.Context, id string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("timeout")
	}
	return f.MemoryStore.DeleteAppointment(ctx, id)
}

func TestDeleteResumesAfterPartialFailure(t *testing.T) {
	store := &flakyDeleteStore{MemoryStore: storage.NewMemoryStore()}
	r := newTestRegistry(store)
	ctx := context.Background()
	d, _ := r.Save(ctx, model.Doctor{Name: "Dr. Partial", Specialization: "GP"})
	completed := addAppointment(t, store, d.ID, 10, model.StatusCompleted)
	addAppointment(t, store, d.ID, 11, model.StatusBooked)

	store.failures = 1
	if err := r.Delete(ctx, d.ID); !errors.Is(err, model.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := r.Get(ctx, d.ID); err != nil {
		t.Fatalf("doctor must remain after a failed cascade: %v", err)
	}

	if err := r.Delete(ctx, d.ID); err != nil {
		t.Fatalf("re-run failed: %v", err)
	}
	if _, err := store.GetRetiredArchive(ctx, completed); err != nil {
		t.Fatalf("archive missing after re-run: %v", err)
	}
	if _, err := r.Get(ctx, d.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected doctor gone, got %v", err)
	}
}

func TestDeleteUnknownDoctorIsNoop(t *testing.T) {
	r := newTestRegistry(storage.NewMemoryStore())
	if err := r.Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
