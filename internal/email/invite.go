package email

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/paintpro/appointments/internal/kafka"
)

const productID = "-//paintpro//appointments//EN"

// Organizer is who the invite comes from.
type Organizer struct {
	Name    string
	Address string
}

// BuildInvite renders a METHOD:REQUEST calendar for the booked appointment, with the requester as
// attendee when they gave an email address.
func BuildInvite(event kafka.AppointmentEvent, loc *time.Location, organizer Organizer, now time.Time) (string, error) {
	start, end, err := event.Window(loc)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId(productID)

	ev := cal.AddEvent(event.BookingID + "@appointments")
	ev.SetDtStampTime(now)
	if !event.CreatedAt.IsZero() {
		ev.SetCreatedTime(event.CreatedAt)
	}
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	ev.SetSummary(summary(organizer.Name))
	ev.SetLocation(inviteLocation(event))
	if desc := description(event); desc != "" {
		ev.SetDescription(desc)
	}
	if organizer.Address != "" {
		ev.SetOrganizer("mailto:"+organizer.Address, ics.WithCN(organizer.Name))
	}
	if event.Email != "" {
		ev.AddAttendee("mailto:"+event.Email,
			ics.CalendarUserTypeIndividual,
			ics.ParticipationStatusNeedsAction,
			ics.ParticipationRoleReqParticipant,
			ics.WithRSVP(true),
			ics.WithCN(event.Name),
		)
	}

	return cal.Serialize(), nil
}

func summary(company string) string {
	if company == "" {
		return "Estimate appointment"
	}
	return fmt.Sprintf("Estimate appointment with %s", company)
}

func inviteLocation(event kafka.AppointmentEvent) string {
	if event.Address != "" {
		return event.Address
	}
	return event.Location
}

func description(event kafka.AppointmentEvent) string {
	var lines []string
	if event.Phone != "" {
		lines = append(lines, "Phone: "+event.Phone)
	}
	if event.Notes != "" {
		lines = append(lines, "Notes: "+event.Notes)
	}
	return strings.Join(lines, "\n")
}
