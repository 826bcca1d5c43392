// Package apperr holds the error kinds shared by the booking core and its transports.
//
// Callers wrap these with fmt.Errorf("...: %w", ...) and test with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput marks malformed caller input (dates, times, ids).
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRule marks a working-hours rule whose end is not after its start.
	ErrInvalidRule = errors.New("invalid working hours rule")
	// ErrPastTimestamp marks a requested time that is not far enough in the future.
	ErrPastTimestamp = errors.New("time is in the past")
	// ErrSlotConflict marks a booking that lost against an overlapping active booking.
	ErrSlotConflict = errors.New("time slot already booked")
	// ErrNotFound marks an operation on an entity that does not exist.
	ErrNotFound = errors.New("not found")
)

// HTTPStatus maps an error to the status code the HTTP layer reports for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPastTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, ErrSlotConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
