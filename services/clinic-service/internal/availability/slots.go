package availability

import (
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

type State string

const (
	StateAvailable State = "available"
	StateBooked    State = "booked"
	StatePast      State = "past"
	StateWeekOff   State = "week_off"
)

// Slot is one catalog time resolved against a concrete date.
type Slot struct {
	Time  TimeOfDay
	Start time.Time
	State State
}

// Compute classifies every catalog slot of date for doctor.
//
// date is interpreted in its own location at calendar-day granularity; now is
// converted to that location before comparing. appointments is a snapshot and
// may contain other doctors' rows, which are ignored. Bookings match by
// calendar date and hour only.
func Compute(doctor model.Doctor, date time.Time, appointments []model.Appointment, now time.Time) []Slot {
	catalog := DailySlots()
	out := make([]Slot, 0, len(catalog))

	if doctor.WeekOffs.Contains(date) {
		for _, tod := range catalog {
			out = append(out, Slot{Time: tod, Start: tod.On(date), State: StateWeekOff})
		}
		return out
	}

	now = now.In(date.Location())
	today := SameDay(date, now)
	booked := bookedHours(doctor.ID, date, appointments)

	for _, tod := range catalog {
		start := tod.On(date)
		state := StateAvailable
		switch {
		case today && start.Before(now):
			state = StatePast
		case booked[tod.Hour]:
			state = StateBooked
		}
		out = append(out, Slot{Time: tod, Start: start, State: state})
	}
	return out
}

func bookedHours(doctorID string, date time.Time, appointments []model.Appointment) map[int]bool {
	hours := map[int]bool{}
	for _, a := range appointments {
		if a.DoctorID != doctorID {
			continue
		}
		slot := a.Slot.In(date.Location())
		if SameDay(slot, date) {
			hours[slot.Hour()] = true
		}
	}
	return hours
}

// SameDay compares calendar days; b is converted to a's location first.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
