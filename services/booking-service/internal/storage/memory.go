package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/belvedhair/booking/services/booking-service/internal/apperr"
	"github.com/belvedhair/booking/services/booking-service/internal/availability"
	"github.com/belvedhair/booking/services/booking-service/internal/model"
	"github.com/belvedhair/booking/services/booking-service/internal/outbox"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It mirrors the Postgres
// semantics, including the overlap check on insert, and is used for local
// development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	staff    map[string]model.Staff
	rules    []model.WorkingHoursRule
	timeOff  []model.TimeOff
	bookings []model.Booking
	requests []model.PriorityRequest
	events   []outbox.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:   time.Now,
		staff: make(map[string]model.Staff),
	}
}

func (m *MemoryStore) CreateStaff(_ context.Context, s model.Staff) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = uuid.NewString()
	m.staff[s.ID] = s
	return s.ID, nil
}

func (m *MemoryStore) ListStaff(_ context.Context, activeOnly bool) ([]model.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Staff{}
	for _, s := range m.staff {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) WorkingHours(_ context.Context, staffID string, weekday int) ([]model.WorkingHoursRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.WorkingHoursRule
	for _, r := range m.rules {
		if r.StaffID == staffID && r.Weekday == weekday {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListWorkingHours(_ context.Context, staffID string) ([]model.WorkingHoursRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.WorkingHoursRule
	for _, r := range m.rules {
		if r.StaffID == staffID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) ReplaceWorkingHours(_ context.Context, staffID string, weekday int, rules []model.WorkingHoursRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.staff[staffID]; !ok {
		return fmt.Errorf("staff %s: %w", staffID, apperr.ErrNotFound)
	}
	m.rules = slices.DeleteFunc(m.rules, func(r model.WorkingHoursRule) bool {
		return r.StaffID == staffID && r.Weekday == weekday
	})
	for _, r := range rules {
		r.StaffID = staffID
		r.Weekday = weekday
		m.rules = append(m.rules, r)
	}
	return nil
}

func (m *MemoryStore) InsertTimeOff(_ context.Context, t model.TimeOff) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.staff[t.StaffID]; !ok {
		return "", fmt.Errorf("insert time off: %w", apperr.ErrNotFound)
	}
	t.ID = uuid.NewString()
	t.CreatedAt = m.now()
	m.timeOff = append(m.timeOff, t)
	return t.ID, nil
}

func (m *MemoryStore) BusyIntervals(_ context.Context, staffID string, from, to time.Time) ([]availability.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	window := availability.Interval{Start: from, End: to}
	var out []availability.Interval
	for _, t := range m.timeOff {
		iv := availability.Interval{Start: t.Start, End: t.End}
		if t.StaffID == staffID && iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	for _, b := range m.bookings {
		iv := availability.Interval{Start: b.Start, End: b.End}
		if b.StaffID == staffID && b.Status.Active() && iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	return out, nil
}

// InsertBooking checks for an overlapping active booking and inserts under one
// lock, so of several racing overlapping inserts exactly one succeeds.
func (m *MemoryStore) InsertBooking(_ context.Context, b model.Booking) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.staff[b.StaffID]; !ok {
		return "", fmt.Errorf("insert booking: %w", apperr.ErrNotFound)
	}
	if b.Status.Active() {
		candidate := availability.Interval{Start: b.Start, End: b.End}
		for _, existing := range m.bookings {
			if existing.StaffID != b.StaffID || !existing.Status.Active() {
				continue
			}
			if candidate.Overlaps(availability.Interval{Start: existing.Start, End: existing.End}) {
				return "", fmt.Errorf("insert booking: %w", apperr.ErrSlotConflict)
			}
		}
	}

	b.ID = uuid.NewString()
	b.CreatedAt = m.now()
	evt, err := outbox.NewBookingEvent(outbox.EventBookingBooked, b)
	if err != nil {
		return "", err
	}
	m.bookings = append(m.bookings, b)
	m.events = append(m.events, evt)
	return b.ID, nil
}

func (m *MemoryStore) CancelBooking(_ context.Context, id string) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.bookings {
		b := &m.bookings[i]
		if b.ID != id {
			continue
		}
		if b.Status == model.StatusCancelled {
			return m.withStaffName(*b), nil
		}
		now := m.now()
		b.Status = model.StatusCancelled
		b.CancelledAt = &now
		evt, err := outbox.NewBookingEvent(outbox.EventBookingCancelled, *b)
		if err != nil {
			return model.Booking{}, err
		}
		m.events = append(m.events, evt)
		return m.withStaffName(*b), nil
	}
	return model.Booking{}, fmt.Errorf("booking %s: %w", id, apperr.ErrNotFound)
}

func (m *MemoryStore) ListBookings(_ context.Context, staffID string, from, to time.Time) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	window := availability.Interval{Start: from, End: to}
	out := []model.Booking{}
	for _, b := range m.bookings {
		if staffID != "" && b.StaffID != staffID {
			continue
		}
		if (availability.Interval{Start: b.Start, End: b.End}).Overlaps(window) {
			out = append(out, m.withStaffName(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *MemoryStore) InsertPriorityRequest(_ context.Context, p model.PriorityRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.staff[p.StaffID]; !ok {
		return "", fmt.Errorf("insert priority request: %w", apperr.ErrNotFound)
	}
	p.ID = uuid.NewString()
	p.CreatedAt = m.now()
	m.requests = append(m.requests, p)
	return p.ID, nil
}

// PriorityRequests returns a copy of the stored requests.
func (m *MemoryStore) PriorityRequests() []model.PriorityRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Events returns a copy of the domain events recorded so far.
func (m *MemoryStore) Events() []outbox.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

func (m *MemoryStore) withStaffName(b model.Booking) model.Booking {
	b.StaffName = m.staff[b.StaffID].Name
	return b
}
