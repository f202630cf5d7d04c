package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          uuid.UUID
	SlotID      uuid.UUID
	LeadID      *uuid.UUID
	Name        string
	Email       string
	Phone       string
	Address     string
	Notes       string
	Status      BookingStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}
