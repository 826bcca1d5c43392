package availability

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/belvedhair/booking/services/booking-service/internal/apperr"
	"github.com/belvedhair/booking/services/booking-service/internal/model"
)

const staff = "staff-1"

// 2026-10-19 is a Monday.
var monday = model.NewDate(2026, time.October, 19)

func utcParams() Params {
	return Params{Duration: 30 * time.Minute, Granularity: 15 * time.Minute, Location: time.UTC}
}

func rule(weekday int, start, end string) model.WorkingHoursRule {
	s, err := model.ParseTimeOfDay(start)
	if err != nil {
		panic(err)
	}
	e, err := model.ParseTimeOfDay(end)
	if err != nil {
		panic(err)
	}
	return model.WorkingHoursRule{StaffID: staff, Weekday: weekday, Start: s, End: e}
}

func clock(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	v, err := model.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", s, err)
	}
	return v
}

func formatSlots(slots []model.TimeOfDay) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.String())
	}
	return out
}

func assertSlots(t *testing.T, got []model.TimeOfDay, want ...string) {
	t.Helper()
	g := formatSlots(got)
	if len(g) != len(want) {
		t.Fatalf("expected %d slots %v, got %d %v", len(want), want, len(g), g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("slot %d: expected %s, got %s (all: %v)", i, want[i], g[i], g)
		}
	}
}

func contains(slots []model.TimeOfDay, s model.TimeOfDay) bool {
	for _, v := range slots {
		if v == s {
			return true
		}
	}
	return false
}

func TestAvailableSlots_Basic(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	busy := []Interval{
		{Start: day.Add(9*time.Hour + 15*time.Minute), End: day.Add(9*time.Hour + 45*time.Minute)},
	}

	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, busy)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[1].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected second slot 09:45, got %s", slots[1].Format(time.RFC3339))
	}
}

func TestAvailableSlots_WindowShorterThanDuration(t *testing.T) {
	start := time.Date(2026, 1, 28, 9, 0, 0, 0, time.UTC)
	if slots := AvailableSlots(start, start.Add(20*time.Minute), 30*time.Minute, 15*time.Minute, nil); len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestComputeDaySlots_MorningShift(t *testing.T) {
	rules := []model.WorkingHoursRule{rule(1, "09:00", "12:00")}

	slots, err := ComputeDaySlots(staff, monday, rules, nil, utcParams())
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	// 11:30 is the last start that still ends by 12:00.
	assertSlots(t, slots,
		"09:00", "09:15", "09:30", "09:45", "10:00", "10:15",
		"10:30", "10:45", "11:00", "11:15", "11:30")
	if contains(slots, clock(t, "11:45")) {
		t.Fatal("11:45 would end at 12:15 and must not be offered")
	}
}

func TestComputeDaySlots_BusyInterval(t *testing.T) {
	rules := []model.WorkingHoursRule{rule(1, "09:00", "12:00")}
	busy := []Interval{{
		Start: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC),
	}}

	slots, err := ComputeDaySlots(staff, monday, rules, busy, utcParams())
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	for _, excluded := range []string{"09:45", "10:00", "10:15"} {
		if contains(slots, clock(t, excluded)) {
			t.Fatalf("%s overlaps the busy interval and must be excluded: %v", excluded, formatSlots(slots))
		}
	}
	// 09:30-10:00 ends where the busy interval starts, 10:30 starts where it ends.
	for _, included := range []string{"09:30", "10:30"} {
		if !contains(slots, clock(t, included)) {
			t.Fatalf("%s only touches the busy interval and must be offered: %v", included, formatSlots(slots))
		}
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %v", formatSlots(slots))
	}
}

func TestComputeDaySlots_NoRulesIgnoresBusy(t *testing.T) {
	rules := []model.WorkingHoursRule{
		rule(2, "09:00", "17:00"),
		{StaffID: "someone-else", Weekday: 1, Start: clock(t, "09:00"), End: clock(t, "17:00")},
	}
	busy := []Interval{{
		Start: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
	}}

	slots, err := ComputeDaySlots(staff, monday, rules, busy, utcParams())
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	if slots == nil || len(slots) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", slots)
	}
}

func TestComputeDaySlots_InvalidRule(t *testing.T) {
	cases := [][]model.WorkingHoursRule{
		{rule(1, "12:00", "09:00")},
		{rule(1, "09:00", "09:00")},
		{rule(1, "09:00", "12:00"), rule(1, "15:00", "14:00")},
	}
	for i, rules := range cases {
		_, err := ComputeDaySlots(staff, monday, rules, nil, utcParams())
		if !errors.Is(err, apperr.ErrInvalidRule) {
			t.Fatalf("case %d: expected ErrInvalidRule, got %v", i, err)
		}
	}

	// A broken rule on another weekday does not affect this day.
	rules := []model.WorkingHoursRule{rule(1, "09:00", "10:00"), rule(3, "12:00", "09:00")}
	if _, err := ComputeDaySlots(staff, monday, rules, nil, utcParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestComputeDaySlots_InvalidParams(t *testing.T) {
	rules := []model.WorkingHoursRule{rule(1, "09:00", "12:00")}
	bad := []Params{
		{Duration: 0, Granularity: 15 * time.Minute, Location: time.UTC},
		{Duration: 30 * time.Minute, Granularity: 0, Location: time.UTC},
		{Duration: 30 * time.Minute, Granularity: 90 * time.Second, Location: time.UTC},
		{Duration: 30 * time.Minute, Granularity: 15 * time.Minute},
	}
	for i, p := range bad {
		if _, err := ComputeDaySlots(staff, monday, rules, nil, p); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestComputeDaySlots_SnapsStartUp(t *testing.T) {
	rules := []model.WorkingHoursRule{rule(1, "09:05", "10:20")}

	slots, err := ComputeDaySlots(staff, monday, rules, nil, utcParams())
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	assertSlots(t, slots, "09:15", "09:30", "09:45")
}

func TestComputeDaySlots_SplitShiftsMergeAndDedupe(t *testing.T) {
	rules := []model.WorkingHoursRule{
		rule(1, "14:00", "15:00"),
		rule(1, "09:00", "10:00"),
		rule(1, "09:30", "10:30"), // overlaps the first morning shift
	}

	slots, err := ComputeDaySlots(staff, monday, rules, nil, utcParams())
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	assertSlots(t, slots,
		"09:00", "09:15", "09:30", "09:45", "10:00",
		"14:00", "14:15", "14:30")
}

func TestComputeDaySlots_ShiftUntilMidnight(t *testing.T) {
	rules := []model.WorkingHoursRule{rule(1, "23:00", "24:00")}

	slots, err := ComputeDaySlots(staff, monday, rules, nil, utcParams())
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	assertSlots(t, slots, "23:00", "23:15", "23:30")
}

func TestComputeDaySlots_Properties(t *testing.T) {
	day := monday
	rules := []model.WorkingHoursRule{
		rule(1, "08:10", "12:00"),
		rule(1, "13:00", "18:50"),
	}
	at := func(h, m int) time.Time { return time.Date(2026, 10, 19, h, m, 0, 0, time.UTC) }
	busy := []Interval{
		{Start: at(8, 50), End: at(9, 20)},
		{Start: at(11, 0), End: at(13, 30)},
		{Start: at(16, 5), End: at(16, 10)},
	}
	for _, p := range []Params{
		{Duration: 30 * time.Minute, Granularity: 15 * time.Minute, Location: time.UTC},
		{Duration: 45 * time.Minute, Granularity: 10 * time.Minute, Location: time.UTC},
		{Duration: 60 * time.Minute, Granularity: 30 * time.Minute, Location: time.UTC},
	} {
		slots, err := ComputeDaySlots(staff, day, rules, busy, p)
		if err != nil {
			t.Fatalf("ComputeDaySlots: %v", err)
		}
		step := model.TimeOfDay(p.Granularity / time.Minute)
		for i, s := range slots {
			if i > 0 && slots[i-1] >= s {
				t.Fatalf("slots not strictly ascending: %v", formatSlots(slots))
			}
			if s%step != 0 {
				t.Fatalf("slot %s not aligned to %s", s, p.Granularity)
			}
			start := day.At(s, p.Location)
			candidate := Interval{Start: start, End: start.Add(p.Duration)}
			inShift := false
			for _, r := range rules {
				if !start.Before(day.At(r.Start, p.Location)) && !candidate.End.After(day.At(r.End, p.Location)) {
					inShift = true
				}
			}
			if !inShift {
				t.Fatalf("slot %s (%s) does not fit a shift", s, p.Duration)
			}
			for _, b := range busy {
				if candidate.Overlaps(b) {
					t.Fatalf("slot %s overlaps busy %s-%s", s, b.Start.Format("15:04"), b.End.Format("15:04"))
				}
			}
		}
	}
}

func TestComputeDaySlots_UsesZoneOffsetOfTheDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	p := Params{Duration: 30 * time.Minute, Granularity: 15 * time.Minute, Location: loc}
	rules := []model.WorkingHoursRule{rule(7, "09:00", "12:00")}
	// 08:00Z is 10:00 CEST on the first summer-time Sunday and 09:00 CET a week earlier.
	busyAt := func(y int, m time.Month, d int) []Interval {
		return []Interval{{
			Start: time.Date(y, m, d, 8, 0, 0, 0, time.UTC),
			End:   time.Date(y, m, d, 8, 30, 0, 0, time.UTC),
		}}
	}

	summer, err := ComputeDaySlots(staff, model.NewDate(2026, time.March, 29), rules, busyAt(2026, time.March, 29), p)
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	if contains(summer, clock(t, "10:00")) || contains(summer, clock(t, "09:45")) {
		t.Fatalf("10:00 CEST is busy: %v", formatSlots(summer))
	}
	if !contains(summer, clock(t, "09:00")) || !contains(summer, clock(t, "10:30")) {
		t.Fatalf("09:00 and 10:30 CEST are free: %v", formatSlots(summer))
	}

	winter, err := ComputeDaySlots(staff, model.NewDate(2026, time.March, 22), rules, busyAt(2026, time.March, 22), p)
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	if contains(winter, clock(t, "09:00")) || !contains(winter, clock(t, "10:00")) {
		t.Fatalf("09:00 CET is busy and 10:00 CET is free: %v", formatSlots(winter))
	}
}

func TestComputeDaySlots_SpringForwardShift(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	p := Params{Duration: 30 * time.Minute, Granularity: 15 * time.Minute, Location: loc}
	rules := []model.WorkingHoursRule{rule(7, "01:00", "04:00")}

	// 02:00-03:00 does not exist on 2026-03-29; the shift is two real hours long.
	slots, err := ComputeDaySlots(staff, model.NewDate(2026, time.March, 29), rules, nil, p)
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	assertSlots(t, slots, "01:00", "01:15", "01:30", "01:45", "03:00", "03:15", "03:30")
}

func TestComputeDaySlots_FallBackShift(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	p := Params{Duration: 30 * time.Minute, Granularity: 15 * time.Minute, Location: loc}
	rules := []model.WorkingHoursRule{rule(7, "01:00", "04:00")}

	// 02:00-03:00 happens twice on 2026-10-25; repeated wall times are reported once.
	slots, err := ComputeDaySlots(staff, model.NewDate(2026, time.October, 25), rules, nil, p)
	if err != nil {
		t.Fatalf("ComputeDaySlots: %v", err)
	}
	assertSlots(t, slots,
		"01:00", "01:15", "01:30", "01:45", "02:00", "02:15",
		"02:30", "02:45", "03:00", "03:15", "03:30")
}

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	i := Interval{Start: base, End: base.Add(30 * time.Minute)}
	cases := []struct {
		other Interval
		want  bool
	}{
		{Interval{Start: base.Add(-30 * time.Minute), End: base}, false},
		{Interval{Start: base.Add(30 * time.Minute), End: base.Add(time.Hour)}, false},
		{Interval{Start: base.Add(29 * time.Minute), End: base.Add(time.Hour)}, true},
		{Interval{Start: base.Add(5 * time.Minute), End: base.Add(10 * time.Minute)}, true},
		{Interval{Start: base.Add(-time.Hour), End: base.Add(time.Hour)}, true},
	}
	for n, tc := range cases {
		if got := i.Overlaps(tc.other); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", n, tc.want, got)
		}
		if got := tc.other.Overlaps(i); got != tc.want {
			t.Fatalf("case %d (reversed): expected %v, got %v", n, tc.want, got)
		}
	}
}
