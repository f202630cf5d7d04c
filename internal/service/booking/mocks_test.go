package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/kafka"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) BookSlot(ctx context.Context, booking *domain.Booking, today time.Time) (*domain.Slot, error) {
	args := m.Called(ctx, booking, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Slot), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]domain.Booking, error) {
	args := m.Called(ctx, slotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) ListAvailable(ctx context.Context, after time.Time) ([]domain.SlotAvailability, error) {
	args := m.Called(ctx, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SlotAvailability), args.Error(1)
}

func (m *MockSlotRepository) GetAvailability(ctx context.Context, id uuid.UUID) (*domain.SlotAvailability, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SlotAvailability), args.Error(1)
}

func (m *MockSlotRepository) Create(ctx context.Context, slot *domain.Slot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *MockSlotRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.SlotStatus) (*domain.Slot, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Slot), args.Error(1)
}

func (m *MockSlotRepository) CloseThrough(ctx context.Context, day time.Time) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	args := m.Called(ctx, lead)
	if args.Error(0) == nil && lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateOpenSlots(ctx context.Context, day time.Time) error {
	return m.Called(ctx, day).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyBooked(ctx context.Context, event kafka.AppointmentEvent) error {
	return m.Called(ctx, event).Error(0)
}
