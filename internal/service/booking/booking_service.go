package booking

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paintpro/appointments/internal/apperrors"
	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/kafka"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/repository"
	"github.com/paintpro/appointments/internal/validation"
)

const defaultNotifyTimeout = 10 * time.Second

type BookingUseCase interface {
	BookSlot(ctx context.Context, input BookSlotInput) (*Result, error)
	CreateAppointment(ctx context.Context, input BookSlotInput) (*Result, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBySlot(ctx context.Context, slotID string) ([]domain.Booking, error)
}

// Cache is the part of the open-slot cache a booking change has to invalidate.
type Cache interface {
	InvalidateOpenSlots(ctx context.Context, day time.Time) error
}

type Notifier interface {
	NotifyBooked(ctx context.Context, event kafka.AppointmentEvent) error
}

type BookSlotInput struct {
	SlotID  string     `json:"slotId" validate:"required,uuid"`
	Name    string     `json:"name" validate:"required,max=200"`
	Email   string     `json:"email" validate:"omitempty,email,max=254"`
	Phone   string     `json:"phone" validate:"omitempty,max=32"`
	Address string     `json:"address" validate:"max=500"`
	Notes   string     `json:"notes" validate:"max=2000"`
	LeadID  *uuid.UUID `json:"-"`
}

// Result is a committed booking and the slot it holds a place in.
type Result struct {
	Booking domain.Booking
	Slot    domain.Slot
}

type BookingService struct {
	bookings      repository.BookingRepository
	slots         repository.SlotRepository
	leads         repository.LeadRepository
	cache         Cache
	notifier      Notifier
	validator     *validation.Validator
	log           *logger.Logger
	loc           *time.Location
	location      string
	notifyTimeout time.Duration
	now           func() time.Time
	pending       sync.WaitGroup
}

type BookingServiceOption func(*BookingService)

// WithTimezone sets the zone whose calendar date counts as today. UTC by default.
func WithTimezone(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		s.loc = loc
	}
}

// WithAppointmentLocation sets the location text carried in notifications.
func WithAppointmentLocation(location string) BookingServiceOption {
	return func(s *BookingService) {
		s.location = location
	}
}

func WithNotifyTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.notifyTimeout = d
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// NewBookingService wires the booking guard. cache and notifier may be nil.
func NewBookingService(
	bookings repository.BookingRepository,
	slots repository.SlotRepository,
	leads repository.LeadRepository,
	cache Cache,
	notifier Notifier,
	log *logger.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		slots:         slots,
		leads:         leads,
		cache:         cache,
		notifier:      notifier,
		validator:     validation.New(),
		log:           log,
		loc:           time.UTC,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// BookSlot books one place in a slot. Validation happens before any storage access; the
// lock, date, status and capacity checks and the insert run as one unit in the repository.
func (s *BookingService) BookSlot(ctx context.Context, input BookSlotInput) (*Result, error) {
	booking, err := s.prepare(input)
	if err != nil {
		return nil, err
	}
	return s.book(ctx, booking)
}

// CreateAppointment records the requester as a website lead and then books the slot for them.
// The lead stays even if the booking is rejected.
func (s *BookingService) CreateAppointment(ctx context.Context, input BookSlotInput) (*Result, error) {
	booking, err := s.prepare(input)
	if err != nil {
		return nil, err
	}

	lead := &domain.Lead{
		Name:    booking.Name,
		Email:   booking.Email,
		Phone:   booking.Phone,
		Address: booking.Address,
		Notes:   booking.Notes,
		Source:  domain.LeadSourceWebsite,
		Status:  domain.LeadStatusNew,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		s.log.Error("failed to create lead", "slot_id", booking.SlotID, "error", err)
		return nil, apperrors.Internal("Failed to save your request", err)
	}
	booking.LeadID = &lead.ID

	return s.book(ctx, booking)
}

func (s *BookingService) prepare(input BookSlotInput) (*domain.Booking, error) {
	input.SlotID = strings.TrimSpace(input.SlotID)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
	input.Notes = strings.TrimSpace(input.Notes)

	details := map[string]any{}
	if err := s.validator.Struct(input); err != nil {
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeValidation {
			return nil, appErr
		}
		for k, v := range appErr.Details {
			details[k] = v
		}
	}
	if input.Email == "" && input.Phone == "" {
		details["contact"] = "email or phone is required"
	}

	phone := ""
	if input.Phone != "" {
		normalized, ok := validation.NormalizePhone(input.Phone)
		if ok {
			phone = normalized
		} else if _, seen := details["phone"]; !seen {
			details["phone"] = "phone must be a valid phone number"
		}
	}

	if len(details) > 0 {
		return nil, apperrors.Validation("Invalid booking request", details)
	}

	return &domain.Booking{
		SlotID:  uuid.MustParse(input.SlotID),
		LeadID:  input.LeadID,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   phone,
		Address: input.Address,
		Notes:   input.Notes,
	}, nil
}

func (s *BookingService) book(ctx context.Context, booking *domain.Booking) (*Result, error) {
	today := s.today()
	slot, err := s.bookings.BookSlot(ctx, booking, today)
	if err != nil {
		return nil, s.rejection(err, booking.SlotID)
	}

	s.log.Info("slot booked",
		"booking_id", booking.ID,
		"slot_id", slot.ID,
		"slot_date", slot.Date.Format(domain.DateLayout),
	)

	s.invalidate(ctx, today)
	s.notify(ctx, kafka.NewAppointmentBooked(*booking, *slot, s.location))

	return &Result{Booking: *booking, Slot: *slot}, nil
}

// rejection maps a failed booking attempt to the error callers see. Anything that is not a
// business rejection is reported as an opaque persistence fault.
func (s *BookingService) rejection(err error, slotID uuid.UUID) error {
	switch {
	case errors.Is(err, domain.ErrSlotNotFound):
		return apperrors.Wrap(err, apperrors.CodeSlotNotFound, "Slot not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrSlotInPast):
		return apperrors.Wrap(err, apperrors.CodeSlotInPast, "Slot date has already passed", http.StatusBadRequest)
	case errors.Is(err, domain.ErrSlotClosed):
		return apperrors.Wrap(err, apperrors.CodeSlotClosed, "Slot is closed for booking", http.StatusBadRequest)
	case errors.Is(err, domain.ErrSlotFull):
		return apperrors.Wrap(err, apperrors.CodeSlotFull, "Slot is fully booked", http.StatusConflict)
	}
	s.log.Error("booking failed", "slot_id", slotID, "error", err)
	return apperrors.Internal("Failed to book the slot", err)
}

func (s *BookingService) invalidate(ctx context.Context, today time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOpenSlots(ctx, today); err != nil {
		s.log.Warn("failed to invalidate open slot cache", "error", err)
	}
}

// notify sends the booking notification in the background, detached from the request and bounded
// by the notify timeout.
func (s *BookingService) notify(ctx context.Context, event kafka.AppointmentEvent) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		if err := s.notifier.NotifyBooked(ctx, event); err != nil {
			s.log.Warn("failed to send booking notification", "booking_id", event.BookingID, "error", err)
		}
	}()
}

// Wait blocks until every in-flight notification has finished or timed out.
func (s *BookingService) Wait() {
	s.pending.Wait()
}

// CancelBooking frees the booking's place. Cancelling a cancelled booking returns it unchanged.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid booking id")
	}

	booking, err := s.bookings.Cancel(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, apperrors.NotFound("Booking")
		}
		s.log.Error("failed to cancel booking", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to cancel the booking", err)
	}

	s.log.Info("booking cancelled", "booking_id", booking.ID, "slot_id", booking.SlotID)
	s.invalidate(ctx, s.today())
	return booking, nil
}

func (s *BookingService) ListBySlot(ctx context.Context, slotID string) ([]domain.Booking, error) {
	id, err := uuid.Parse(slotID)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid slot id")
	}

	if _, err := s.slots.GetAvailability(ctx, id); err != nil {
		if errors.Is(err, domain.ErrSlotNotFound) {
			return nil, apperrors.Wrap(err, apperrors.CodeSlotNotFound, "Slot not found", http.StatusNotFound)
		}
		return nil, apperrors.Internal("Failed to load the slot", err)
	}

	bookings, err := s.bookings.ListBySlot(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) today() time.Time {
	return domain.CalendarDay(s.now(), s.loc)
}

var _ BookingUseCase = (*BookingService)(nil)
