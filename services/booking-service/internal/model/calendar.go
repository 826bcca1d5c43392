package model

import (
	"fmt"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	monthLayout     = "2006-01"
	localLayout     = "2006-01-02T15:04"
	localLayoutSecs = "2006-01-02T15:04:05"
)

// Date is a calendar day without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes out-of-range values the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func (d Date) ISOWeekday() int {
	wd := int(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// At combines the day with a wall-clock time in loc, using the zone offset in
// effect on that date.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, loc)
}

// Bounds returns the half-open range [local midnight, next local midnight).
func (d Date) Bounds(loc *time.Location) (time.Time, time.Time) {
	return d.At(0, loc), d.AddDays(1).At(0, loc)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return YearMonth{}, err
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m YearMonth) FirstDay() Date {
	return Date{Year: m.Year, Month: m.Month, Day: 1}
}

// Days returns the number of days in the month.
func (m YearMonth) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseLocal parses a shop-local "YYYY-MM-DDTHH:MM[:SS]" string in loc. Wall
// times skipped by a daylight-saving jump are rejected rather than shifted.
func ParseLocal(s string, loc *time.Location) (time.Time, error) {
	layout := localLayout
	wall, err := time.Parse(layout, s)
	if err != nil {
		layout = localLayoutSecs
		var err2 error
		if wall, err2 = time.Parse(layout, s); err2 != nil {
			return time.Time{}, err
		}
	}
	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if got := t.Format(localLayoutSecs); got != wall.Format(localLayoutSecs) {
		return time.Time{}, fmt.Errorf("local time %q does not exist in %s", s, loc)
	}
	return t, nil
}
