package model

import (
	"fmt"
	"time"
)

// MinutesPerDay is the exclusive upper bound of a start TimeOfDay and the
// inclusive upper bound of an end TimeOfDay ("24:00").
const MinutesPerDay = 24 * 60

// TimeOfDay is a local wall-clock time expressed as minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" (or "HH:MM:SS" with zero seconds). "24:00" is accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	n, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
	if n < 2 {
		if _, err = fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("parse time of day %q: %w", s, err)
		}
	}
	if h < 0 || m < 0 || m > 59 || sec != 0 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	t := NewTimeOfDay(h, m)
	if t > MinutesPerDay {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

// TimeOfDayOf returns the wall-clock time of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// WorkingHoursRule is one shift of a staff member on an ISO weekday (Monday=1 .. Sunday=7).
type WorkingHoursRule struct {
	StaffID string
	Weekday int
	Start   TimeOfDay
	End     TimeOfDay
}

type TimeOff struct {
	ID        string
	StaffID   string
	Start     time.Time
	End       time.Time
	Reason    string
	CreatedAt time.Time
}

type Staff struct {
	ID       string
	Name     string
	PhotoURL string
	IsActive bool
}
