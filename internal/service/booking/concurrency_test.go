package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paintpro/appointments/internal/apperrors"
	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/repository"
)

func newMemoryService(t *testing.T) (*BookingService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	service := NewBookingService(store.Bookings(), store.Slots(), store.Leads(), nil, nil, logger.Nop(),
		WithClock(func() time.Time { return fixedNow }))
	return service, store
}

func createSlot(t *testing.T, store *repository.MemoryStore, slot domain.Slot) uuid.UUID {
	t.Helper()
	require.NoError(t, store.Slots().Create(context.Background(), &slot))
	return slot.ID
}

func bookedCount(t *testing.T, store *repository.MemoryStore, slotID uuid.UUID) int {
	t.Helper()
	a, err := store.Slots().GetAvailability(context.Background(), slotID)
	require.NoError(t, err)
	return a.Booked
}

// bookInParallel releases n callers at once and returns the error codes they saw, "" for success.
func bookInParallel(service *BookingService, slotID uuid.UUID, n int) []string {
	codes := make([]string, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := service.BookSlot(context.Background(), BookSlotInput{
				SlotID: slotID.String(),
				Name:   fmt.Sprintf("Caller %d", i),
				Email:  fmt.Sprintf("caller%d@example.com", i),
			})
			if err != nil {
				codes[i] = apperrors.AsAppError(err).Code
			}
		}(i)
	}
	close(start)
	wg.Wait()
	return codes
}

func count(codes []string, code string) int {
	n := 0
	for _, c := range codes {
		if c == code {
			n++
		}
	}
	return n
}

func TestBookSlot_ThreeCallersForTwoPlaces(t *testing.T) {
	service, store := newMemoryService(t)
	s1 := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "09:00", EndTime: "11:00", Capacity: 2, Status: domain.SlotStatusOpen})

	codes := bookInParallel(service, s1, 3)

	assert.Equal(t, 2, count(codes, ""))
	assert.Equal(t, 1, count(codes, apperrors.CodeSlotFull))
	assert.Equal(t, 2, bookedCount(t, store, s1))
}

func TestBookSlot_SinglePlaceRace(t *testing.T) {
	for round := 0; round < 20; round++ {
		service, store := newMemoryService(t)
		slotID := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "13:00", EndTime: "15:00", Capacity: 1, Status: domain.SlotStatusOpen})

		codes := bookInParallel(service, slotID, 2)

		require.Equal(t, 1, count(codes, ""), "round %d", round)
		require.Equal(t, 1, count(codes, apperrors.CodeSlotFull), "round %d", round)
	}
}

func TestBookSlot_CapacityHoldsUnderLoad(t *testing.T) {
	service, store := newMemoryService(t)
	slotID := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "09:00", EndTime: "17:00", Capacity: 7, Status: domain.SlotStatusOpen})

	codes := bookInParallel(service, slotID, 64)

	assert.Equal(t, 7, count(codes, ""))
	assert.Equal(t, 57, count(codes, apperrors.CodeSlotFull))
	assert.Equal(t, 7, bookedCount(t, store, slotID))
}

func TestBookSlot_DifferentSlotsDoNotInterfere(t *testing.T) {
	service, store := newMemoryService(t)
	a := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "09:00", EndTime: "11:00", Capacity: 3, Status: domain.SlotStatusOpen})
	b := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "13:00", EndTime: "15:00", Capacity: 3, Status: domain.SlotStatusOpen})

	var wg sync.WaitGroup
	var codesA, codesB []string
	wg.Add(2)
	go func() { defer wg.Done(); codesA = bookInParallel(service, a, 5) }()
	go func() { defer wg.Done(); codesB = bookInParallel(service, b, 5) }()
	wg.Wait()

	assert.Equal(t, 3, count(codesA, ""))
	assert.Equal(t, 3, count(codesB, ""))
}

func TestBookSlot_TodaysSlotIsInThePast(t *testing.T) {
	service, store := newMemoryService(t)
	s2 := createSlot(t, store, domain.Slot{Date: today, StartTime: "18:00", EndTime: "20:00", Capacity: 5, Status: domain.SlotStatusOpen})

	codes := bookInParallel(service, s2, 4)

	assert.Equal(t, 4, count(codes, apperrors.CodeSlotInPast))
	assert.Equal(t, 0, bookedCount(t, store, s2))
}

func TestBookSlot_ClosedSlotWithRoomIsClosed(t *testing.T) {
	service, store := newMemoryService(t)
	slotID := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "09:00", EndTime: "11:00", Capacity: 5, Status: domain.SlotStatusClosed})

	_, err := service.BookSlot(context.Background(), validInput(slotID))

	assert.ErrorIs(t, err, domain.ErrSlotClosed)
	assert.Equal(t, 0, bookedCount(t, store, slotID))
}

func TestBookSlot_RepeatedFailureNeverInserts(t *testing.T) {
	service, store := newMemoryService(t)
	ctx := context.Background()
	slotID := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "09:00", EndTime: "11:00", Capacity: 1, Status: domain.SlotStatusOpen})

	_, err := service.BookSlot(ctx, validInput(slotID))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := service.BookSlot(ctx, validInput(slotID))
		assert.ErrorIs(t, err, domain.ErrSlotFull)
	}

	bookings, err := store.Bookings().ListBySlot(ctx, slotID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestBookSlot_InvalidRequestLeavesNoTrace(t *testing.T) {
	service, store := newMemoryService(t)
	ctx := context.Background()
	slotID := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "09:00", EndTime: "11:00", Capacity: 1, Status: domain.SlotStatusOpen})

	_, err := service.CreateAppointment(ctx, BookSlotInput{SlotID: slotID.String(), Name: "No Contact"})

	assert.Equal(t, apperrors.CodeValidation, apperrors.AsAppError(err).Code)
	assert.Equal(t, 0, bookedCount(t, store, slotID))
}

func TestCancelBooking_FreesThePlace(t *testing.T) {
	service, store := newMemoryService(t)
	ctx := context.Background()
	slotID := createSlot(t, store, domain.Slot{Date: tomorrow, StartTime: "09:00", EndTime: "11:00", Capacity: 1, Status: domain.SlotStatusOpen})

	first, err := service.CreateAppointment(ctx, validInput(slotID))
	require.NoError(t, err)

	_, err = service.BookSlot(ctx, validInput(slotID))
	require.ErrorIs(t, err, domain.ErrSlotFull)

	_, err = service.CancelBooking(ctx, first.Booking.ID.String())
	require.NoError(t, err)
	_, err = service.CancelBooking(ctx, first.Booking.ID.String())
	require.NoError(t, err)

	_, err = service.BookSlot(ctx, validInput(slotID))
	assert.NoError(t, err)
	assert.Equal(t, 1, bookedCount(t, store, slotID))
}
