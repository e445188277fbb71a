package errors

import "errors"

var (
	ErrNotFound = errors.New("room not found")

	ErrInvalidID = errors.New("invalid room ID format")

	// ErrDayTaken is returned when a day is already in the room's booked dates.
	ErrDayTaken = errors.New("room already booked on this day")
)
