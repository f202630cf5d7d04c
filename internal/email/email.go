package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/paintpro/appointments/config"
	"github.com/paintpro/appointments/internal/kafka"
	"github.com/paintpro/appointments/internal/logger"
)

const inviteFilename = "appointment.ics"

type emailClient interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Sender delivers booking confirmations through Resend. It doubles as the notifier when no Kafka
// brokers are configured.
type Sender struct {
	emails    emailClient
	cfg       config.EmailConfig
	organizer Organizer
	loc       *time.Location
	log       *logger.Logger
	now       func() time.Time
}

func NewSender(cfg config.EmailConfig, loc *time.Location, log *logger.Logger) *Sender {
	return newSender(resend.NewClient(cfg.APIKey).Emails, cfg, loc, log)
}

func newSender(emails emailClient, cfg config.EmailConfig, loc *time.Location, log *logger.Logger) *Sender {
	organizer := Organizer{Name: cfg.CompanyName}
	if addr, err := mail.ParseAddress(cfg.From); err == nil {
		organizer.Address = addr.Address
		if organizer.Name == "" {
			organizer.Name = addr.Name
		}
	}
	return &Sender{emails: emails, cfg: cfg, organizer: organizer, loc: loc, log: log, now: time.Now}
}

// NotifyBooked mails the requester (when they gave an address) and the office. Both sends are
// attempted even if one fails.
func (s *Sender) NotifyBooked(ctx context.Context, event kafka.AppointmentEvent) error {
	invite, err := BuildInvite(event, s.loc, s.organizer, s.now())
	if err != nil {
		return fmt.Errorf("build invite for booking %s: %w", event.BookingID, err)
	}
	attachment := &resend.Attachment{Content: []byte(invite), Filename: inviteFilename}

	var errs []error
	if event.Email != "" {
		req := &resend.SendEmailRequest{
			From:        s.cfg.From,
			To:          []string{event.Email},
			Subject:     "Your estimate appointment is confirmed",
			Html:        confirmationHTML(event, s.organizer.Name),
			Text:        confirmationText(event, s.organizer.Name),
			ReplyTo:     s.cfg.AdminAddress,
			Attachments: []*resend.Attachment{attachment},
		}
		if err := s.send(ctx, req, event.BookingID); err != nil {
			errs = append(errs, fmt.Errorf("confirmation to requester: %w", err))
		}
	}

	if s.cfg.AdminAddress != "" {
		req := &resend.SendEmailRequest{
			From:        s.cfg.From,
			To:          []string{s.cfg.AdminAddress},
			Subject:     fmt.Sprintf("New appointment: %s on %s %s", event.Name, event.SlotDate, event.StartTime),
			Text:        adminText(event),
			Attachments: []*resend.Attachment{attachment},
		}
		if event.Email != "" {
			req.ReplyTo = event.Email
		}
		if err := s.send(ctx, req, event.BookingID); err != nil {
			errs = append(errs, fmt.Errorf("notice to office: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *Sender) send(ctx context.Context, req *resend.SendEmailRequest, bookingID string) error {
	sent, err := s.emails.SendWithContext(ctx, req)
	if err != nil {
		return err
	}
	s.log.Info("email sent", "booking_id", bookingID, "to", req.To, "email_id", sent.Id)
	return nil
}

func confirmationText(event kafka.AppointmentEvent, company string) string {
	return fmt.Sprintf("Hi %s,\n\nYour estimate appointment with %s is booked for %s from %s to %s.\nThe calendar invite is attached.\n",
		event.Name, company, event.SlotDate, event.StartTime, event.EndTime)
}

func confirmationHTML(event kafka.AppointmentEvent, company string) string {
	return fmt.Sprintf("<p>Hi %s,</p><p>Your estimate appointment with %s is booked for <strong>%s</strong> from %s to %s.</p><p>The calendar invite is attached.</p>",
		html.EscapeString(event.Name), html.EscapeString(company),
		html.EscapeString(event.SlotDate), html.EscapeString(event.StartTime), html.EscapeString(event.EndTime))
}

func adminText(event kafka.AppointmentEvent) string {
	return fmt.Sprintf("Booking %s\nSlot: %s %s-%s\nName: %s\nEmail: %s\nPhone: %s\nAddress: %s\nNotes: %s\nLead: %s\n",
		event.BookingID, event.SlotDate, event.StartTime, event.EndTime,
		event.Name, event.Email, event.Phone, event.Address, event.Notes, event.LeadID)
}
