package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

func normalize(req Request) Request {
	req.DoctorID = strings.TrimSpace(req.DoctorID)
	req.Date = strings.TrimSpace(req.Date)
	req.SlotTime = strings.TrimSpace(req.SlotTime)
	req.Patient.Name = strings.TrimSpace(req.Patient.Name)
	req.Patient.Phone = strings.TrimSpace(req.Patient.Phone)
	req.Patient.Email = strings.TrimSpace(req.Patient.Email)
	return req
}

// validate returns the booking date (midnight in the clinic timezone) and the
// requested catalog slot. req must already be normalized.
func (c *Coordinator) validate(req Request) (time.Time, availability.TimeOfDay, error) {
	fail := func(format string, args ...any) (time.Time, availability.TimeOfDay, error) {
		return time.Time{}, availability.TimeOfDay{}, fmt.Errorf("%w: "+format, append([]any{model.ErrValidation}, args...)...)
	}

	if req.DoctorID == "" {
		return fail("doctor id is required")
	}
	if req.Date == "" {
		return fail("date is required")
	}
	date, err := c.clock.ParseDate(req.Date)
	if err != nil {
		return fail("date %q is not YYYY-MM-DD", req.Date)
	}
	if req.SlotTime == "" {
		return fail("slot time is required")
	}
	slot, err := availability.ParseTimeOfDay(req.SlotTime)
	if err != nil {
		return fail("%v", err)
	}
	if slot.Minute != 0 || !availability.CatalogHour(slot.Hour) {
		return fail("%s is not a bookable slot", slot)
	}

	switch {
	case req.Patient.Name == "":
		return fail("patient name is required")
	case req.Patient.Phone == "":
		return fail("patient phone is required")
	case req.Patient.Email == "":
		return fail("patient email is required")
	}
	return date, slot, nil
}
