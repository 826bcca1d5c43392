package availability

import (
	"fmt"
	"slices"
	"time"

	"github.com/belvedhair/booking/services/booking-service/internal/apperr"
	"github.com/belvedhair/booking/services/booking-service/internal/model"
)

// Interval is a half-open [Start, End) range of absolute instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. Touching intervals do not.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Params are the shop-wide slot settings.
type Params struct {
	Duration    time.Duration
	Granularity time.Duration
	Location    *time.Location
}

func (p Params) validate() error {
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", apperr.ErrInvalidInput)
	}
	if p.Granularity <= 0 || p.Granularity%time.Minute != 0 {
		return fmt.Errorf("%w: granularity must be a positive whole number of minutes", apperr.ErrInvalidInput)
	}
	if p.Location == nil {
		return fmt.Errorf("%w: location is required", apperr.ErrInvalidInput)
	}
	return nil
}

// ComputeDaySlots returns the local start times on day at which a booking of
// p.Duration fits one of the staff member's shifts without overlapping any busy
// interval. The result is ascending and free of duplicates; a day without
// shifts yields an empty result.
func ComputeDaySlots(staffID string, day model.Date, rules []model.WorkingHoursRule, busy []Interval, p Params) ([]model.TimeOfDay, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	shifts := shiftsFor(staffID, day.ISOWeekday(), rules)
	if len(shifts) == 0 {
		return []model.TimeOfDay{}, nil
	}
	for _, r := range shifts {
		if r.End <= r.Start {
			return nil, fmt.Errorf("%w: staff %s weekday %d %s-%s", apperr.ErrInvalidRule, r.StaffID, r.Weekday, r.Start, r.End)
		}
	}

	seen := make(map[model.TimeOfDay]struct{})
	for _, r := range shifts {
		start := day.At(snapUp(r.Start, p.Granularity), p.Location)
		end := day.At(r.End, p.Location)
		for _, s := range AvailableSlots(start, end, p.Duration, p.Granularity, busy) {
			seen[model.TimeOfDayOf(s.In(p.Location))] = struct{}{}
		}
	}

	out := make([]model.TimeOfDay, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	slices.Sort(out)
	return out, nil
}

// AvailableSlots returns slot start times within [windowStart, windowEnd) where a booking of
// length duration would not overlap any of the busy intervals.
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if !overlapsAny(Interval{Start: t, End: t.Add(duration)}, busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

func shiftsFor(staffID string, weekday int, rules []model.WorkingHoursRule) []model.WorkingHoursRule {
	var out []model.WorkingHoursRule
	for _, r := range rules {
		if r.StaffID == staffID && r.Weekday == weekday {
			out = append(out, r)
		}
	}
	return out
}

// snapUp rounds t up to the next wall-clock multiple of step counted from midnight.
func snapUp(t model.TimeOfDay, step time.Duration) model.TimeOfDay {
	mins := int(step / time.Minute)
	if rem := int(t) % mins; rem != 0 {
		return t + model.TimeOfDay(mins-rem)
	}
	return t
}
