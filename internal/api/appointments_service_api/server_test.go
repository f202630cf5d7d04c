package appointments_service_api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/paintpro/appointments/internal/apperrors"
	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/repository"
	"github.com/paintpro/appointments/internal/service/booking"
	"github.com/paintpro/appointments/internal/service/slots"
)

type fixture struct {
	store  *repository.MemoryStore
	client *Client
	today  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	log := logger.Nop()
	bookingService := booking.NewBookingService(store.Bookings(), store.Slots(), store.Leads(), nil, nil, log)
	slotService := slots.NewSlotService(store.Slots(), nil, time.UTC, log)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogger(log)))
	RegisterAppointmentsServiceServer(srv, NewServer(bookingService, slotService))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &fixture{
		store:  store,
		client: NewClient(conn),
		today:  domain.CalendarDay(time.Now(), time.UTC),
	}
}

func (f *fixture) addSlot(t *testing.T, daysFromToday, capacity int, status domain.SlotStatus) uuid.UUID {
	t.Helper()
	slot := &domain.Slot{
		Date:      f.today.AddDate(0, 0, daysFromToday),
		StartTime: "09:00",
		EndTime:   "11:00",
		Capacity:  capacity,
		Status:    status,
	}
	require.NoError(t, f.store.Slots().Create(context.Background(), slot))
	return slot.ID
}

func bookRequest(t *testing.T, slotID string) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]any{
		"slotId": slotID,
		"name":   "Dana Whitfield",
		"email":  "dana@example.com",
	})
	require.NoError(t, err)
	return req
}

func TestServer_BookSlot(t *testing.T) {
	f := newFixture(t)
	slotID := f.addSlot(t, 3, 1, domain.SlotStatusOpen)

	resp, err := f.client.BookSlot(context.Background(), bookRequest(t, slotID.String()))
	require.NoError(t, err)

	fields := resp.GetFields()
	assert.Equal(t, slotID.String(), fields["slotId"].GetStringValue())
	assert.Equal(t, "booked", fields["status"].GetStringValue())
	assert.Equal(t, f.today.AddDate(0, 0, 3).Format(domain.DateLayout), fields["date"].GetStringValue())
	assert.Equal(t, "09:00", fields["startTime"].GetStringValue())
	_, err = uuid.Parse(fields["appointmentId"].GetStringValue())
	assert.NoError(t, err)

	_, err = f.client.BookSlot(context.Background(), bookRequest(t, slotID.String()))
	require.Error(t, err)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Contains(t, st.Message(), apperrors.CodeSlotFull)
}

func TestServer_BookSlot_Rejections(t *testing.T) {
	f := newFixture(t)
	past := f.addSlot(t, -1, 4, domain.SlotStatusOpen)
	today := f.addSlot(t, 0, 4, domain.SlotStatusOpen)
	closed := f.addSlot(t, 5, 4, domain.SlotStatusClosed)

	tests := []struct {
		name   string
		slotID string
		code   codes.Code
		marker string
	}{
		{name: "unknown slot", slotID: uuid.NewString(), code: codes.NotFound, marker: apperrors.CodeSlotNotFound},
		{name: "yesterday", slotID: past.String(), code: codes.FailedPrecondition, marker: apperrors.CodeSlotInPast},
		{name: "today", slotID: today.String(), code: codes.FailedPrecondition, marker: apperrors.CodeSlotInPast},
		{name: "closed", slotID: closed.String(), code: codes.FailedPrecondition, marker: apperrors.CodeSlotClosed},
		{name: "malformed id", slotID: "slot-1", code: codes.InvalidArgument, marker: apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.client.BookSlot(context.Background(), bookRequest(t, tt.slotID))
			require.Error(t, err)
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			assert.Contains(t, st.Message(), tt.marker)
		})
	}
}

func TestServer_ListSlots(t *testing.T) {
	f := newFixture(t)
	later := f.addSlot(t, 4, 2, domain.SlotStatusOpen)
	sooner := f.addSlot(t, 2, 3, domain.SlotStatusOpen)
	f.addSlot(t, 0, 3, domain.SlotStatusOpen)
	f.addSlot(t, 6, 3, domain.SlotStatusClosed)

	_, err := f.client.BookSlot(context.Background(), bookRequest(t, later.String()))
	require.NoError(t, err)

	resp, err := f.client.ListSlots(context.Background(), &structpb.Struct{})
	require.NoError(t, err)

	items := resp.GetFields()["slots"].GetListValue().GetValues()
	require.Len(t, items, 2)

	first := items[0].GetStructValue().GetFields()
	assert.Equal(t, sooner.String(), first["id"].GetStringValue())
	assert.Equal(t, float64(3), first["remaining"].GetNumberValue())

	second := items[1].GetStructValue().GetFields()
	assert.Equal(t, later.String(), second["id"].GetStringValue())
	assert.Equal(t, float64(2), second["capacity"].GetNumberValue())
	assert.Equal(t, float64(1), second["remaining"].GetNumberValue())
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{err: apperrors.Validation("bad", nil), code: codes.InvalidArgument},
		{err: apperrors.BadRequest("bad"), code: codes.InvalidArgument},
		{err: apperrors.NotFound("Booking"), code: codes.NotFound},
		{err: apperrors.Unauthorized("no"), code: codes.Unauthenticated},
		{err: assert.AnError, code: codes.Internal},
	}

	for _, tt := range tests {
		st, _ := status.FromError(toStatus(tt.err))
		assert.Equal(t, tt.code, st.Code(), tt.err.Error())
	}

	st, _ := status.FromError(toStatus(assert.AnError))
	assert.NotContains(t, st.Message(), assert.AnError.Error())
}
