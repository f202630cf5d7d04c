package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/paintpro/appointments/internal/domain"
)

const EventAppointmentBooked = "appointment_booked"

// AppointmentEvent is the message published after a booking commits.
type AppointmentEvent struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	SlotID    string    `json:"slot_id"`
	LeadID    string    `json:"lead_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	SlotDate  string    `json:"slot_date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewAppointmentBooked(b domain.Booking, s domain.Slot, location string) AppointmentEvent {
	event := AppointmentEvent{
		Type:      EventAppointmentBooked,
		BookingID: b.ID.String(),
		SlotID:    s.ID.String(),
		Name:      b.Name,
		Email:     b.Email,
		Phone:     b.Phone,
		Address:   b.Address,
		Notes:     b.Notes,
		SlotDate:  s.Date.Format(domain.DateLayout),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Location:  location,
		CreatedAt: b.CreatedAt,
	}
	if b.LeadID != nil {
		event.LeadID = b.LeadID.String()
	}
	return event
}

// Window returns the appointment start and end in loc.
func (e AppointmentEvent) Window(loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(domain.DateLayout+" "+domain.ClockLayout, e.SlotDate+" "+e.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start of %s: %w", e.BookingID, err)
	}
	end, err := time.ParseInLocation(domain.DateLayout+" "+domain.ClockLayout, e.SlotDate+" "+e.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end of %s: %w", e.BookingID, err)
	}
	return start, end, nil
}

func DecodeEvent(msg kafka.Message) (AppointmentEvent, error) {
	var event AppointmentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return AppointmentEvent{}, fmt.Errorf("decode event at offset %d: %w", msg.Offset, err)
	}
	return event, nil
}
