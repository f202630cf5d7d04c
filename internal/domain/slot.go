package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusOpen   SlotStatus = "open"
	SlotStatusClosed SlotStatus = "closed"
)

// DateLayout is the wire and storage layout of Slot.Date.
const DateLayout = "2006-01-02"

// ClockLayout is the layout of Slot.StartTime and Slot.EndTime.
const ClockLayout = "15:04"

// Slot is a bookable estimate window. Date carries only the calendar day (UTC midnight).
type Slot struct {
	ID        uuid.UUID
	Date      time.Time
	StartTime string
	EndTime   string
	Capacity  int
	Status    SlotStatus
	CreatedAt time.Time
}

// SlotAvailability is a slot together with its current count of booked bookings.
type SlotAvailability struct {
	Slot
	Booked int
}

func (a SlotAvailability) Remaining() int {
	if a.Booked >= a.Capacity {
		return 0
	}
	return a.Capacity - a.Booked
}

// StartsAt resolves the slot start in loc.
func (s *Slot) StartsAt(loc *time.Location) (time.Time, error) {
	return s.at(s.StartTime, loc)
}

// EndsAt resolves the slot end in loc.
func (s *Slot) EndsAt(loc *time.Location) (time.Time, error) {
	return s.at(s.EndTime, loc)
}

func (s *Slot) at(clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot clock %q: %w", clock, err)
	}
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
}

// IsBookableOn reports why the slot cannot take a booking on the given day, checking the date
// before the status. today must be a calendar day at UTC midnight.
func (s *Slot) IsBookableOn(today time.Time) error {
	if !s.Date.After(today) {
		return ErrSlotInPast
	}
	if s.Status != SlotStatusOpen {
		return ErrSlotClosed
	}
	return nil
}

// CalendarDay truncates t to its calendar day in loc and returns it as UTC midnight, the same
// representation used for Slot.Date.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
