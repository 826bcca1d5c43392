// Package booking is the application core: it answers availability queries and
// admits bookings for a single shop whose wall clock runs in one time zone.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/belvedhair/booking/services/booking-service/internal/apperr"
	"github.com/belvedhair/booking/services/booking-service/internal/availability"
	"github.com/belvedhair/booking/services/booking-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Schedule is the read side of working hours plus time-off and booked intervals.
type Schedule interface {
	WorkingHours(ctx context.Context, staffID string, weekday int) ([]model.WorkingHoursRule, error)
	ListWorkingHours(ctx context.Context, staffID string) ([]model.WorkingHoursRule, error)
	ReplaceWorkingHours(ctx context.Context, staffID string, weekday int, rules []model.WorkingHoursRule) error
	BusyIntervals(ctx context.Context, staffID string, from, to time.Time) ([]availability.Interval, error)
	InsertTimeOff(ctx context.Context, t model.TimeOff) (string, error)
}

// Bookings persists bookings. InsertBooking must reject an active booking that
// overlaps another active booking of the same staff member with
// apperr.ErrSlotConflict, atomically with respect to concurrent inserts.
type Bookings interface {
	InsertBooking(ctx context.Context, b model.Booking) (string, error)
	CancelBooking(ctx context.Context, id string) (model.Booking, error)
	ListBookings(ctx context.Context, staffID string, from, to time.Time) ([]model.Booking, error)
	InsertPriorityRequest(ctx context.Context, p model.PriorityRequest) (string, error)
}

type Directory interface {
	CreateStaff(ctx context.Context, s model.Staff) (string, error)
	ListStaff(ctx context.Context, activeOnly bool) ([]model.Staff, error)
}

type Store interface {
	Schedule
	Bookings
	Directory
}

// Metrics receives booking outcomes. A nil Metrics in Config disables recording.
type Metrics interface {
	ObserveBooking(result string)
	ObserveAvailability(kind string, elapsed time.Duration)
}

// Booking results reported to Metrics.
const (
	ResultConfirmed = "confirmed"
	ResultConflict  = "conflict"
	ResultRejected  = "rejected"
	ResultError     = "error"
)

type Config struct {
	Params availability.Params
	// MinLead is how far in the future a booking or priority request must start.
	MinLead time.Duration
	Now     func() time.Time
	Metrics Metrics
}

type Service struct {
	store   Store
	params  availability.Params
	minLead time.Duration
	now     func() time.Time
	metrics Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewService(store Store, logger *slog.Logger, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Params.Location == nil {
		cfg.Params.Location = time.UTC
	}
	return &Service{
		store:   store,
		params:  cfg.Params,
		minLead: cfg.MinLead,
		now:     cfg.Now,
		metrics: cfg.Metrics,
		logger:  logger,
		tracer:  otel.Tracer("github.com/belvedhair/booking/services/booking-service/internal/booking"),
	}
}

// Location is the shop time zone all local strings are read in.
func (s *Service) Location() *time.Location { return s.params.Location }

// SlotDuration is the fixed length of every booking.
func (s *Service) SlotDuration() time.Duration { return s.params.Duration }

// Today is the current calendar day in the shop time zone.
func (s *Service) Today() model.Date {
	return model.DateOf(s.now().In(s.params.Location))
}

// DaySlots returns the bookable local start times of staffID on day.
func (s *Service) DaySlots(ctx context.Context, staffID string, day model.Date) (slots []model.TimeOfDay, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.DaySlots", trace.WithAttributes(
		attribute.String("staff_id", staffID),
		attribute.String("date", day.String()),
	))
	defer func() { endSpan(span, err) }()
	defer s.observeSince("day", s.now())

	if strings.TrimSpace(staffID) == "" {
		return nil, fmt.Errorf("%w: staff_id is required", apperr.ErrInvalidInput)
	}
	rules, err := s.store.WorkingHours(ctx, staffID, day.ISOWeekday())
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	if len(rules) == 0 {
		return []model.TimeOfDay{}, nil
	}

	from, to := day.Bounds(s.params.Location)
	busy, err := s.store.BusyIntervals(ctx, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load busy intervals: %w", err)
	}
	slots, err = availability.ComputeDaySlots(staffID, day, rules, busy, s.params)
	if errors.Is(err, apperr.ErrInvalidRule) {
		s.logger.Error("stored working hours are invalid", "staff_id", staffID, "date", day.String(), "err", err)
	}
	return slots, err
}

// MonthOverview returns the number of free slots for every day of month.
func (s *Service) MonthOverview(ctx context.Context, staffID string, month model.YearMonth) (days []availability.DayCount, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.MonthOverview", trace.WithAttributes(
		attribute.String("staff_id", staffID),
		attribute.String("month", month.String()),
	))
	defer func() { endSpan(span, err) }()
	defer s.observeSince("month", s.now())

	if strings.TrimSpace(staffID) == "" {
		return nil, fmt.Errorf("%w: staff_id is required", apperr.ErrInvalidInput)
	}
	rules, err := s.store.ListWorkingHours(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}

	var busyByDay map[model.Date][]availability.Interval
	if len(rules) > 0 {
		from, _ := month.FirstDay().Bounds(s.params.Location)
		_, to := month.FirstDay().AddDays(month.Days() - 1).Bounds(s.params.Location)
		busy, err := s.store.BusyIntervals(ctx, staffID, from, to)
		if err != nil {
			return nil, fmt.Errorf("load busy intervals: %w", err)
		}
		busyByDay = availability.BucketByDay(busy, month, s.params.Location)
	}

	days, err = availability.ComputeMonthOverview(staffID, month, s.Today(), rules, busyByDay, s.params)
	if errors.Is(err, apperr.ErrInvalidRule) {
		s.logger.Error("stored working hours are invalid", "staff_id", staffID, "month", month.String(), "err", err)
	}
	return days, err
}

type BookRequest struct {
	StaffID string
	// StartLocal is "YYYY-MM-DDTHH:MM" in the shop time zone.
	StartLocal   string
	CustomerName string
	PhoneE164    string
	Email        string
}

// Book admits a booking for a start time currently offered by DaySlots. The
// store makes the final decision: of several concurrent requests for
// overlapping intervals exactly one is confirmed and the others fail with
// apperr.ErrSlotConflict.
func (s *Service) Book(ctx context.Context, req BookRequest) (b model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Book", trace.WithAttributes(
		attribute.String("staff_id", req.StaffID),
		attribute.String("start_local", req.StartLocal),
	))
	defer func() {
		s.metrics.ObserveBooking(bookingResult(err))
		endSpan(span, err)
	}()

	if strings.TrimSpace(req.StaffID) == "" {
		return model.Booking{}, fmt.Errorf("%w: staff_id is required", apperr.ErrInvalidInput)
	}
	start, err := s.parseFuture(req.StartLocal, "start_local")
	if err != nil {
		return model.Booking{}, err
	}

	day, at := model.DateOf(start), model.TimeOfDayOf(start)
	slots, err := s.DaySlots(ctx, req.StaffID, day)
	if err != nil {
		return model.Booking{}, err
	}
	if !slices.Contains(slots, at) {
		return model.Booking{}, fmt.Errorf("%w: %s %s is not offered", apperr.ErrSlotConflict, day, at)
	}

	b = model.Booking{
		StaffID:      req.StaffID,
		CustomerName: req.CustomerName,
		PhoneE164:    req.PhoneE164,
		Email:        req.Email,
		Start:        start,
		End:          start.Add(s.params.Duration),
		Status:       model.StatusConfirmed,
	}
	id, err := s.store.InsertBooking(ctx, b)
	if err != nil {
		if errors.Is(err, apperr.ErrSlotConflict) {
			s.logger.Info("booking lost race", "staff_id", req.StaffID, "start", start)
		}
		return model.Booking{}, err
	}
	b.ID = id
	s.logger.Info("booking confirmed", "booking_id", id, "staff_id", req.StaffID, "start", start)
	return b, nil
}

// Cancel cancels a booking; its interval is offered again immediately.
func (s *Service) Cancel(ctx context.Context, bookingID string) (b model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel", trace.WithAttributes(attribute.String("booking_id", bookingID)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(bookingID) == "" {
		return model.Booking{}, fmt.Errorf("%w: booking_id is required", apperr.ErrInvalidInput)
	}
	b, err = s.store.CancelBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	s.logger.Info("booking cancelled", "booking_id", b.ID, "staff_id", b.StaffID)
	return b, nil
}

type PriorityRequest struct {
	StaffID      string
	DesiredLocal string
	CustomerName string
	PhoneE164    string
	Email        string
	Notes        string
}

// RequestPriority records a wish for a time that is not offered, for the shop
// to follow up on manually.
func (s *Service) RequestPriority(ctx context.Context, req PriorityRequest) (id string, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.RequestPriority", trace.WithAttributes(attribute.String("staff_id", req.StaffID)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(req.StaffID) == "" {
		return "", fmt.Errorf("%w: staff_id is required", apperr.ErrInvalidInput)
	}
	desired, err := s.parseFuture(req.DesiredLocal, "desired_local")
	if err != nil {
		return "", err
	}
	id, err = s.store.InsertPriorityRequest(ctx, model.PriorityRequest{
		StaffID:      req.StaffID,
		CustomerName: req.CustomerName,
		PhoneE164:    req.PhoneE164,
		Email:        req.Email,
		DesiredAt:    desired,
		Notes:        req.Notes,
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("priority request recorded", "request_id", id, "staff_id", req.StaffID)
	return id, nil
}

type TimeOffRequest struct {
	StaffID    string
	StartLocal string
	EndLocal   string
	Reason     string
}

func (s *Service) AddTimeOff(ctx context.Context, req TimeOffRequest) (id string, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.AddTimeOff", trace.WithAttributes(attribute.String("staff_id", req.StaffID)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(req.StaffID) == "" {
		return "", fmt.Errorf("%w: staff_id is required", apperr.ErrInvalidInput)
	}
	start, err := model.ParseLocal(req.StartLocal, s.params.Location)
	if err != nil {
		return "", fmt.Errorf("%w: start_local: %v", apperr.ErrInvalidInput, err)
	}
	end, err := model.ParseLocal(req.EndLocal, s.params.Location)
	if err != nil {
		return "", fmt.Errorf("%w: end_local: %v", apperr.ErrInvalidInput, err)
	}
	if !end.After(start) {
		return "", fmt.Errorf("%w: end must be after start", apperr.ErrInvalidInput)
	}
	return s.store.InsertTimeOff(ctx, model.TimeOff{
		StaffID: req.StaffID,
		Start:   start,
		End:     end,
		Reason:  req.Reason,
	})
}

// ListBookings returns bookings of every status overlapping the local days
// from through to, inclusive. An empty staffID lists all staff.
func (s *Service) ListBookings(ctx context.Context, staffID string, from, to model.Date) (bookings []model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.ListBookings")
	defer func() { endSpan(span, err) }()

	if to.Before(from) {
		return nil, fmt.Errorf("%w: to must not be before from", apperr.ErrInvalidInput)
	}
	start, _ := from.Bounds(s.params.Location)
	_, end := to.Bounds(s.params.Location)
	return s.store.ListBookings(ctx, staffID, start, end)
}

// ListStaff returns the active staff members.
func (s *Service) ListStaff(ctx context.Context) ([]model.Staff, error) {
	return s.store.ListStaff(ctx, true)
}

func (s *Service) CreateStaff(ctx context.Context, st model.Staff) (string, error) {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return "", fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	return s.store.CreateStaff(ctx, st)
}

// Shift is one working interval on a weekday.
type Shift struct {
	Start model.TimeOfDay
	End   model.TimeOfDay
}

// SetWorkingHours replaces the shifts of staffID on the ISO weekday. No shifts
// marks the day off.
func (s *Service) SetWorkingHours(ctx context.Context, staffID string, weekday int, shifts []Shift) error {
	if strings.TrimSpace(staffID) == "" {
		return fmt.Errorf("%w: staff_id is required", apperr.ErrInvalidInput)
	}
	if weekday < 1 || weekday > 7 {
		return fmt.Errorf("%w: weekday must be between 1 (Monday) and 7 (Sunday)", apperr.ErrInvalidInput)
	}
	rules := make([]model.WorkingHoursRule, 0, len(shifts))
	for _, sh := range shifts {
		if sh.Start < 0 || sh.Start >= model.MinutesPerDay || sh.End > model.MinutesPerDay || sh.End <= sh.Start {
			return fmt.Errorf("%w: shift %s-%s", apperr.ErrInvalidInput, sh.Start, sh.End)
		}
		rules = append(rules, model.WorkingHoursRule{StaffID: staffID, Weekday: weekday, Start: sh.Start, End: sh.End})
	}
	return s.store.ReplaceWorkingHours(ctx, staffID, weekday, rules)
}

// parseFuture reads a local wall-clock string and enforces the minimum lead time.
func (s *Service) parseFuture(raw, field string) (time.Time, error) {
	t, err := model.ParseLocal(strings.TrimSpace(raw), s.params.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", apperr.ErrInvalidInput, field, err)
	}
	if t.Second() != 0 {
		return time.Time{}, fmt.Errorf("%w: %s must be on a whole minute", apperr.ErrInvalidInput, field)
	}
	if t.Before(s.now().Add(s.minLead)) {
		return time.Time{}, fmt.Errorf("%w: %s", apperr.ErrPastTimestamp, raw)
	}
	return t, nil
}

func (s *Service) observeSince(kind string, start time.Time) {
	s.metrics.ObserveAvailability(kind, s.now().Sub(start))
}

func bookingResult(err error) string {
	switch {
	case err == nil:
		return ResultConfirmed
	case errors.Is(err, apperr.ErrSlotConflict):
		return ResultConflict
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrPastTimestamp), errors.Is(err, apperr.ErrNotFound):
		return ResultRejected
	default:
		return ResultError
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type noopMetrics struct{}

func (noopMetrics) ObserveBooking(string) {}
func (noopMetrics) ObserveAvailability(string, time.Duration) {}
