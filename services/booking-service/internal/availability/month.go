package availability

import (
	"time"

	"github.com/belvedhair/booking/services/booking-service/internal/model"
)

// DayCount is the number of free slots on one calendar day.
type DayCount struct {
	Date model.Date
	Free int
}

// ComputeMonthOverview returns one DayCount per day of month, in calendar order.
// Days before today are never bookable and report zero without consulting the
// schedule.
func ComputeMonthOverview(staffID string, month model.YearMonth, today model.Date, rules []model.WorkingHoursRule, busyByDay map[model.Date][]Interval, p Params) ([]DayCount, error) {
	days := month.Days()
	out := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		day := month.FirstDay().AddDays(i)
		if day.Before(today) {
			out = append(out, DayCount{Date: day, Free: 0})
			continue
		}
		slots, err := ComputeDaySlots(staffID, day, rules, busyByDay[day], p)
		if err != nil {
			return nil, err
		}
		out = append(out, DayCount{Date: day, Free: len(slots)})
	}
	return out, nil
}

// BucketByDay assigns each busy interval to every local day of month it overlaps.
func BucketByDay(busy []Interval, month model.YearMonth, loc *time.Location) map[model.Date][]Interval {
	out := make(map[model.Date][]Interval)
	for i := 0; i < month.Days(); i++ {
		day := month.FirstDay().AddDays(i)
		start, end := day.Bounds(loc)
		bounds := Interval{Start: start, End: end}
		for _, b := range busy {
			if b.Overlaps(bounds) {
				out[day] = append(out[day], b)
			}
		}
	}
	return out
}
