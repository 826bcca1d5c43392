package outbox

import (
	"encoding/json"
	"time"

	"github.com/belvedhair/booking/services/booking-service/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateBooking = "booking"

	EventBookingBooked    = "booking.appointment.booked.v1"
	EventBookingCancelled = "booking.appointment.cancelled.v1"
)

type bookingPayload struct {
	BookingID   string     `json:"booking_id"`
	StaffID     string     `json:"staff_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// NewBookingEvent builds a booking lifecycle event. Customer contact details
// stay out of the payload.
func NewBookingEvent(eventType string, b model.Booking) (Event, error) {
	payload, err := json.Marshal(bookingPayload{
		BookingID:   b.ID,
		StaffID:     b.StaffID,
		StartTime:   b.Start.UTC(),
		EndTime:     b.End.UTC(),
		Status:      string(b.Status),
		CancelledAt: b.CancelledAt,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateBooking,
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
