package domain

import "errors"

var (
	ErrSlotNotFound = errors.New("slot not found")

	ErrSlotClosed = errors.New("slot is closed")

	ErrSlotInPast = errors.New("slot date must be after today")

	ErrSlotFull = errors.New("slot is fully booked")

	ErrBookingNotFound = errors.New("booking not found")
)
