package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/belvedhair/booking/services/booking-service/internal/apperr"
	"github.com/belvedhair/booking/services/booking-service/internal/model"
)

var september = model.YearMonth{Year: 2026, Month: time.September}

func TestComputeMonthOverview_NoRules(t *testing.T) {
	today := model.NewDate(2026, time.September, 15)

	days, err := ComputeMonthOverview(staff, september, today, nil, nil, utcParams())
	if err != nil {
		t.Fatalf("ComputeMonthOverview: %v", err)
	}
	if len(days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(days))
	}
	for i, d := range days {
		if d.Date != model.NewDate(2026, time.September, i+1) {
			t.Fatalf("day %d: unexpected date %s", i, d.Date)
		}
		if d.Free != 0 {
			t.Fatalf("%s: expected 0 free slots, got %d", d.Date, d.Free)
		}
	}
}

func TestComputeMonthOverview_PastDaysAreZero(t *testing.T) {
	today := model.NewDate(2026, time.September, 15)
	rules := []model.WorkingHoursRule{rule(1, "09:00", "12:00")}

	days, err := ComputeMonthOverview(staff, september, today, rules, nil, utcParams())
	if err != nil {
		t.Fatalf("ComputeMonthOverview: %v", err)
	}
	// Mondays in September 2026: 7, 14, 21, 28.
	want := map[int]int{21: 11, 28: 11}
	for _, d := range days {
		if d.Free != want[d.Date.Day] {
			t.Fatalf("%s: expected %d free slots, got %d", d.Date, want[d.Date.Day], d.Free)
		}
	}
}

func TestComputeMonthOverview_UsesBusyPerDay(t *testing.T) {
	today := model.NewDate(2026, time.September, 1)
	rules := []model.WorkingHoursRule{rule(1, "09:00", "12:00")}
	busy := []Interval{{
		Start: time.Date(2026, 9, 21, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 21, 12, 0, 0, 0, time.UTC),
	}, {
		Start: time.Date(2026, 9, 28, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 28, 11, 30, 0, 0, time.UTC),
	}}

	days, err := ComputeMonthOverview(staff, september, today, rules, BucketByDay(busy, september, time.UTC), utcParams())
	if err != nil {
		t.Fatalf("ComputeMonthOverview: %v", err)
	}
	want := map[int]int{7: 11, 14: 11, 21: 0, 28: 8}
	for _, d := range days {
		if d.Free != want[d.Date.Day] {
			t.Fatalf("%s: expected %d free slots, got %d", d.Date, want[d.Date.Day], d.Free)
		}
	}
}

func TestComputeMonthOverview_InvalidRule(t *testing.T) {
	today := model.NewDate(2026, time.September, 1)
	rules := []model.WorkingHoursRule{rule(1, "12:00", "09:00")}

	if _, err := ComputeMonthOverview(staff, september, today, rules, nil, utcParams()); !errors.Is(err, apperr.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}

	// Past days are not evaluated, so a month already behind today reports zeros.
	days, err := ComputeMonthOverview(staff, september, model.NewDate(2026, time.October, 1), rules, nil, utcParams())
	if err != nil {
		t.Fatalf("unexpected error for past month: %v", err)
	}
	if len(days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(days))
	}
}

func TestBucketByDay(t *testing.T) {
	overnight := Interval{
		Start: time.Date(2026, 9, 10, 22, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 11, 2, 0, 0, 0, time.UTC),
	}
	endsAtMidnight := Interval{
		Start: time.Date(2026, 9, 12, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
	}
	outside := Interval{
		Start: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
	}

	buckets := BucketByDay([]Interval{overnight, endsAtMidnight, outside}, september, time.UTC)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 days with busy intervals, got %d", len(buckets))
	}
	for _, d := range []int{10, 11} {
		if got := buckets[model.NewDate(2026, time.September, d)]; len(got) != 1 {
			t.Fatalf("day %d: expected the overnight interval, got %v", d, got)
		}
	}
	if got := buckets[model.NewDate(2026, time.September, 13)]; len(got) != 0 {
		t.Fatalf("interval ending at midnight must not touch the next day, got %v", got)
	}
}
