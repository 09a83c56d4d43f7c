package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

var fixedNow = time.Date(2024, 6, 11, 12, 30, 0, 0, time.UTC)

func newTestCoordinator(t *testing.T, store storage.Store) *Coordinator {
	t.Helper()
	clock := availability.Clock{Location: time.UTC, Now: func() time.Time { return fixedNow }}
	return NewCoordinator(store, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedDoctor(t *testing.T, store storage.Store, weekOffs ...string) model.Doctor {
	t.Helper()
	d, err := store.UpsertDoctor(context.Background(), model.Doctor{
		Name:           "Dr. Nabila Karim",
		Specialization: "Cardiology",
		WeekOffs:       weekOffs,
	})
	if err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return d
}

func request(doctorID, date, slot string) Request {
	return Request{
		DoctorID: doctorID,
		Date:     date,
		SlotTime: slot,
		Patient:  model.Patient{Name: "Arif", Phone: "+8801700000000", Email: "arif@example.com"},
	}
}

func TestBookCreatesAppointment(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedDoctor(t, store)
	c := newTestCoordinator(t, store)

	appt, err := c.Book(context.Background(), request(d.ID, "2024-06-12", "14:00"))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if appt.ID == "" || appt.Status != model.StatusBooked {
		t.Fatalf("unexpected appointment %+v", appt)
	}
	if !appt.Slot.Equal(time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected slot %s", appt.Slot)
	}
	if appt.DoctorName != d.Name || appt.DoctorSpecialization != d.Specialization || appt.PatientEmail != "arif@example.com" {
		t.Fatalf("denormalized fields missing: %+v", appt)
	}

	stored, err := store.GetAppointment(context.Background(), appt.ID)
	if err != nil || stored.DoctorID != d.ID {
		t.Fatalf("appointment not persisted: %+v err=%v", stored, err)
	}
}

func TestBookSecondRequestConflicts(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedDoctor(t, store)
	c := newTestCoordinator(t, store)

	if _, err := c.Book(context.Background(), request(d.ID, "2024-06-12", "10:00")); err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	_, err := c.Book(context.Background(), request(d.ID, "2024-06-12", "10:00"))
	if !errors.Is(err, model.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestBookConcurrentSameSlot(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedDoctor(t, store)
	c := newTestCoordinator(t, store)

	const n = 20
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Book(context.Background(), request(d.ID, "2024-06-13", "16:00"))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, model.ErrSlotConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d/%d", n-1, ok, conflicts)
	}
}

// staleStore hides existing appointments from reads so only the atomic insert
// can detect the conflict.
type staleStore struct {
	*storage.MemoryStore
}

func (staleStore) ListAppointments(ctx context.Context, f storage.AppointmentFilter) ([]model.Appointment, error) {
	return nil, nil
}

func TestBookConflictDetectedByInsert(t *testing.T) {
	store := staleStore{storage.NewMemoryStore()}
	d := seedDoctor(t, store)
	c := newTestCoordinator(t, store)

	if _, err := c.Book(context.Background(), request(d.ID, "2024-06-12", "11:00")); err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	if _, err := c.Book(context.Background(), request(d.ID, "2024-06-12", "11:00")); !errors.Is(err, model.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestBookRejections(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedDoctor(t, store, "2024-06-14")
	c := newTestCoordinator(t, store)

	missingPhone := request(d.ID, "2024-06-12", "10:00")
	missingPhone.Patient.Phone = "  "

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"missing date", request(d.ID, "", "10:00"), model.ErrValidation},
		{"bad date", request(d.ID, "12/06/2024", "10:00"), model.ErrValidation},
		{"missing slot", request(d.ID, "2024-06-12", ""), model.ErrValidation},
		{"lunch hour", request(d.ID, "2024-06-12", "13:00"), model.ErrValidation},
		{"half hour", request(d.ID, "2024-06-12", "10:30"), model.ErrValidation},
		{"missing patient field", missingPhone, model.ErrValidation},
		{"missing doctor id", request("", "2024-06-12", "10:00"), model.ErrValidation},
		{"past date", request(d.ID, "2024-06-10", "10:00"), model.ErrPastDate},
		{"today passed hour", request(d.ID, "2024-06-11", "12:00"), model.ErrPastDate},
		{"unknown doctor", request("nope", "2024-06-12", "10:00"), model.ErrNotFound},
		{"week-off", request(d.ID, "2024-06-14", "10:00"), model.ErrWeekOff},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Book(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if got, _ := store.ListAppointments(context.Background(), storage.AppointmentFilter{}); len(got) != 0 {
		t.Fatalf("rejected bookings must not persist anything, found %d", len(got))
	}
}

func TestBookPastDateCheckedBeforeSlot(t *testing.T) {
	c := newTestCoordinator(t, storage.NewMemoryStore())
	// Validation covers every field before the date is compared to today.
	_, err := c.Book(context.Background(), request("doc", "2024-06-10", "13:00"))
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBookTodayLaterSlot(t *testing.T) {
	store := storage.NewMemoryStore()
	d := seedDoctor(t, store)
	c := newTestCoordinator(t, store)
	if _, err := c.Book(context.Background(), request(d.ID, "2024-06-11", "15:00")); err != nil {
		t.Fatalf("expected later slot today to be bookable: %v", err)
	}
}

type brokenStore struct {
	*storage.MemoryStore
}

func (brokenStore) GetDoctor(ctx context.Context, id string) (model.Doctor, error) {
	return model.Doctor{}, errors.New("connection refused")
}

func TestBookStoreFailure(t *testing.T) {
	c := newTestCoordinator(t, brokenStore{storage.NewMemoryStore()})
	_, err := c.Book(context.Background(), request("doc", "2024-06-12", "10:00"))
	var se *model.StoreError
	if !errors.As(err, &se) || !errors.Is(err, model.ErrStore) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}
