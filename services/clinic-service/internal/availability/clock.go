package availability

import (
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// Clock pins "now" and "today" to the clinic timezone.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, Now: time.Now}
}

func (c Clock) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Current returns the current instant in the clinic timezone.
func (c Clock) Current() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().In(c.loc())
}

func (c Clock) Today() time.Time {
	return StartOfDay(c.Current())
}

// ParseDate reads a YYYY-MM-DD date as midnight in the clinic timezone.
func (c Clock) ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, raw, c.loc())
}

// LoadLocation resolves an IANA zone name; empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
