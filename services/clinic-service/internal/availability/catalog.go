package availability

import (
	"fmt"
	"strings"
	"time"
)

// Clinic hours: hourly slots from openHour to closeHour inclusive, minus the
// lunch hour.
const (
	openHour  = 10
	closeHour = 19
	lunchHour = 13
)

// TimeOfDay is a wall-clock time with no date attached.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On anchors t to date's calendar day in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

// DailySlots returns the clinic's bookable times of day in order. Every call
// returns a new slice.
func DailySlots() []TimeOfDay {
	slots := make([]TimeOfDay, 0, closeHour-openHour)
	for h := openHour; h <= closeHour; h++ {
		if h == lunchHour {
			continue
		}
		slots = append(slots, TimeOfDay{Hour: h})
	}
	return slots
}

// CatalogHour reports whether hour starts a catalog slot.
func CatalogHour(hour int) bool {
	return hour >= openHour && hour <= closeHour && hour != lunchHour
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", raw)
}
