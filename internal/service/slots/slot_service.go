package slots

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/paintpro/appointments/internal/apperrors"
	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/repository"
	"github.com/paintpro/appointments/internal/validation"
)

type SlotUseCase interface {
	ListOpen(ctx context.Context) ([]domain.SlotAvailability, error)
	Get(ctx context.Context, id string) (*domain.SlotAvailability, error)
	Create(ctx context.Context, input CreateSlotInput) (*domain.Slot, error)
	Close(ctx context.Context, id string) (*domain.Slot, error)
	Open(ctx context.Context, id string) (*domain.Slot, error)
	CloseExpired(ctx context.Context) (int64, error)
}

type SlotCache interface {
	GetOpenSlots(ctx context.Context, day time.Time) ([]domain.SlotAvailability, int64, error)
	SetOpenSlots(ctx context.Context, day time.Time, gen int64, slots []domain.SlotAvailability) error
	InvalidateOpenSlots(ctx context.Context, day time.Time) error
}

type CreateSlotInput struct {
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime" validate:"required,clock"`
	Capacity  *int   `json:"capacity" validate:"required,min=0"`
}

type SlotService struct {
	repo      repository.SlotRepository
	cache     SlotCache
	validator *validation.Validator
	log       *logger.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewSlotService builds the slot service. cache may be nil; loc decides which calendar day is today.
func NewSlotService(repo repository.SlotRepository, cache SlotCache, loc *time.Location, log *logger.Logger) *SlotService {
	return &SlotService{
		repo:      repo,
		cache:     cache,
		validator: validation.New(),
		log:       log,
		loc:       loc,
		now:       time.Now,
	}
}

// ListOpen returns open slots dated after today that still have room, read through the cache.
// The fill uses the generation seen before the store read, so a booking that lands in between
// leaves the fill unreachable.
func (s *SlotService) ListOpen(ctx context.Context) ([]domain.SlotAvailability, error) {
	today := s.today()
	fill := false
	var gen int64
	if s.cache != nil {
		cached, g, err := s.cache.GetOpenSlots(ctx, today)
		switch {
		case err != nil:
			s.log.Warn("failed to read open slot cache", "error", err)
		case cached != nil:
			return cached, nil
		default:
			fill, gen = true, g
		}
	}

	slots, err := s.repo.ListAvailable(ctx, today)
	if err != nil {
		s.log.Error("failed to list open slots", "error", err)
		return nil, apperrors.Internal("Failed to list slots", err)
	}
	if fill {
		if err := s.cache.SetOpenSlots(ctx, today, gen, slots); err != nil {
			s.log.Warn("failed to fill open slot cache", "error", err)
		}
	}
	return slots, nil
}

func (s *SlotService) Get(ctx context.Context, id string) (*domain.SlotAvailability, error) {
	slotID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	slot, err := s.repo.GetAvailability(ctx, slotID)
	if err != nil {
		return nil, s.translate(err, "Failed to load the slot")
	}
	return slot, nil
}

func (s *SlotService) Create(ctx context.Context, input CreateSlotInput) (*domain.Slot, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	date, _ := time.Parse(domain.DateLayout, input.Date)
	if input.EndTime <= input.StartTime {
		return nil, apperrors.Validation("Invalid slot", map[string]any{"endTime": "endTime must be after startTime"})
	}
	if !date.After(s.today()) {
		return nil, apperrors.Validation("Invalid slot", map[string]any{"date": "date must be after today"})
	}

	slot := &domain.Slot{
		Date:      date,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Capacity:  *input.Capacity,
		Status:    domain.SlotStatusOpen,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		s.log.Error("failed to create slot", "date", input.Date, "error", err)
		return nil, apperrors.Internal("Failed to create the slot", err)
	}

	s.log.Info("slot created", "slot_id", slot.ID, "date", input.Date, "capacity", slot.Capacity)
	s.invalidate(ctx)
	return slot, nil
}

func (s *SlotService) Close(ctx context.Context, id string) (*domain.Slot, error) {
	return s.setStatus(ctx, id, domain.SlotStatusClosed)
}

func (s *SlotService) Open(ctx context.Context, id string) (*domain.Slot, error) {
	return s.setStatus(ctx, id, domain.SlotStatusOpen)
}

func (s *SlotService) setStatus(ctx context.Context, id string, status domain.SlotStatus) (*domain.Slot, error) {
	slotID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	slot, err := s.repo.SetStatus(ctx, slotID, status)
	if err != nil {
		return nil, s.translate(err, "Failed to update the slot")
	}

	s.log.Info("slot status changed", "slot_id", slot.ID, "status", status)
	s.invalidate(ctx)
	return slot, nil
}

// CloseExpired closes every open slot dated today or earlier.
func (s *SlotService) CloseExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.CloseThrough(ctx, s.today())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("closed past slots", "count", n)
		s.invalidate(ctx)
	}
	return n, nil
}

func (s *SlotService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOpenSlots(ctx, s.today()); err != nil {
		s.log.Warn("failed to invalidate open slot cache", "error", err)
	}
}

func (s *SlotService) translate(err error, message string) error {
	if errors.Is(err, domain.ErrSlotNotFound) {
		return apperrors.Wrap(err, apperrors.CodeSlotNotFound, "Slot not found", http.StatusNotFound)
	}
	s.log.Error(message, "error", err)
	return apperrors.Internal(message, err)
}

func (s *SlotService) today() time.Time {
	return domain.CalendarDay(s.now(), s.loc)
}

func parseID(id string) (uuid.UUID, error) {
	slotID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("Invalid slot id")
	}
	return slotID, nil
}

var _ SlotUseCase = (*SlotService)(nil)
