package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrAlreadyBooked is returned when a booking for the same room and day exists.
	ErrAlreadyBooked = errors.New("room already booked on this day")
)
