package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paintpro/appointments/internal/domain"
)

// MemoryStore keeps slots, bookings and leads in process memory. Bookings against one slot are
// serialized by a per-slot lock that, unlike a sync.Mutex, can be abandoned when ctx ends.
type MemoryStore struct {
	mu       sync.RWMutex
	slots    map[uuid.UUID]domain.Slot
	bookings map[uuid.UUID]domain.Booking
	leads    map[uuid.UUID]domain.Lead

	slotLocks sync.Map
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots:    make(map[uuid.UUID]domain.Slot),
		bookings: make(map[uuid.UUID]domain.Booking),
		leads:    make(map[uuid.UUID]domain.Lead),
		now:      time.Now,
	}
}

func (s *MemoryStore) Slots() SlotRepository       { return memorySlots{s} }
func (s *MemoryStore) Bookings() BookingRepository { return memoryBookings{s} }
func (s *MemoryStore) Leads() LeadRepository       { return memoryLeads{s} }

// lockSlot takes the slot's lock. Locks exist only for stored slots, so unknown ids never add one.
func (s *MemoryStore) lockSlot(ctx context.Context, id uuid.UUID) (func(), error) {
	s.mu.RLock()
	_, ok := s.slots[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSlotNotFound
	}

	v, _ := s.slotLocks.LoadOrStore(id, make(chan struct{}, 1))
	sem := v.(chan struct{})
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *MemoryStore) bookedCount(slotID uuid.UUID) int {
	n := 0
	for _, b := range s.bookings {
		if b.SlotID == slotID && b.Status == domain.BookingStatusBooked {
			n++
		}
	}
	return n
}

type memorySlots struct{ *MemoryStore }

func (s memorySlots) ListAvailable(_ context.Context, after time.Time) ([]domain.SlotAvailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SlotAvailability, 0)
	for _, slot := range s.slots {
		if slot.Status != domain.SlotStatusOpen || !slot.Date.After(after) {
			continue
		}
		a := domain.SlotAvailability{Slot: slot, Booked: s.bookedCount(slot.ID)}
		if a.Remaining() > 0 {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s memorySlots) GetAvailability(_ context.Context, id uuid.UUID) (*domain.SlotAvailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	return &domain.SlotAvailability{Slot: slot, Booked: s.bookedCount(id)}, nil
}

func (s memorySlots) Create(_ context.Context, slot *domain.Slot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	if slot.Status == "" {
		slot.Status = domain.SlotStatusOpen
	}
	slot.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot.ID] = *slot
	return nil
}

func (s memorySlots) SetStatus(ctx context.Context, id uuid.UUID, status domain.SlotStatus) (*domain.Slot, error) {
	unlock, err := s.lockSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	slot.Status = status
	s.slots[id] = slot
	return &slot, nil
}

func (s memorySlots) CloseThrough(_ context.Context, day time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, slot := range s.slots {
		if slot.Status == domain.SlotStatusOpen && !slot.Date.After(day) {
			slot.Status = domain.SlotStatusClosed
			s.slots[id] = slot
			n++
		}
	}
	return n, nil
}

type memoryBookings struct{ *MemoryStore }

func (s memoryBookings) BookSlot(ctx context.Context, booking *domain.Booking, today time.Time) (*domain.Slot, error) {
	unlock, err := s.lockSlot(ctx, booking.SlotID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[booking.SlotID]
	if !ok {
		return nil, domain.ErrSlotNotFound
	}
	if err := slot.IsBookableOn(today); err != nil {
		return nil, err
	}
	if s.bookedCount(slot.ID) >= slot.Capacity {
		return nil, domain.ErrSlotFull
	}

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.Status = domain.BookingStatusBooked
	booking.CreatedAt = s.now()
	s.bookings[booking.ID] = *booking
	return &slot, nil
}

func (s memoryBookings) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (s memoryBookings) Cancel(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if b.Status == domain.BookingStatusBooked {
		now := s.now()
		b.Status = domain.BookingStatusCancelled
		b.CancelledAt = &now
		s.bookings[id] = b
	}
	return &b, nil
}

func (s memoryBookings) ListBySlot(_ context.Context, slotID uuid.UUID) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if b.SlotID == slotID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memoryLeads struct{ *MemoryStore }

func (s memoryLeads) Create(_ context.Context, lead *domain.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	lead.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = *lead
	return nil
}

var (
	_ SlotRepository    = memorySlots{}
	_ BookingRepository = memoryBookings{}
	_ LeadRepository    = memoryLeads{}
)
