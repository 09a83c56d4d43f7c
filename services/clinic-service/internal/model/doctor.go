package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for week-offs and booking dates.
const DateLayout = "2006-01-02"

type Doctor struct {
	ID             string
	Name           string
	Specialization string
	WeekOffs       WeekOffs
}

// WeekOffs is a set of explicit calendar dates (YYYY-MM-DD) on which the
// doctor takes no bookings. There is no weekday recurrence.
type WeekOffs []string

// Contains compares by calendar day in date's own location.
func (w WeekOffs) Contains(date time.Time) bool {
	day := date.Format(DateLayout)
	for _, off := range w {
		if off == day {
			return true
		}
	}
	return false
}

// NormalizeWeekOffs validates every entry and returns a sorted, de-duplicated copy.
func NormalizeWeekOffs(in []string) (WeekOffs, error) {
	seen := make(map[string]struct{}, len(in))
	out := make(WeekOffs, 0, len(in))
	for _, raw := range in {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: week-off %q is not a YYYY-MM-DD date", ErrValidation, raw)
		}
		key := d.Format(DateLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}
