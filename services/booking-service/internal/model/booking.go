package model

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Active reports whether a booking in this status blocks its interval.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Booking struct {
	ID           string
	StaffID      string
	StaffName    string
	CustomerName string
	PhoneE164    string
	Email        string
	Start        time.Time
	End          time.Time
	Status       BookingStatus
	CancelledAt  *time.Time
	CreatedAt    time.Time
}

type PriorityRequest struct {
	ID           string
	StaffID      string
	CustomerName string
	PhoneE164    string
	Email        string
	DesiredAt    time.Time
	Notes        string
	CreatedAt    time.Time
}
