package appointments_service_api

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/paintpro/appointments/internal/apperrors"
	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/service/booking"
	"github.com/paintpro/appointments/internal/service/slots"
)

// Server implements AppointmentsServiceServer on top of the booking and slot services.
type Server struct {
	bookings booking.BookingUseCase
	slots    slots.SlotUseCase
}

func NewServer(bookings booking.BookingUseCase, slotService slots.SlotUseCase) *Server {
	return &Server{bookings: bookings, slots: slotService}
}

func (s *Server) BookSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	result, err := s.bookings.BookSlot(ctx, booking.BookSlotInput{
		SlotID:  fields["slotId"].GetStringValue(),
		Name:    fields["name"].GetStringValue(),
		Email:   fields["email"].GetStringValue(),
		Phone:   fields["phone"].GetStringValue(),
		Address: fields["address"].GetStringValue(),
		Notes:   fields["notes"].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]any{
		"appointmentId": result.Booking.ID.String(),
		"slotId":        result.Slot.ID.String(),
		"status":        string(result.Booking.Status),
		"date":          result.Slot.Date.Format(domain.DateLayout),
		"startTime":     result.Slot.StartTime,
		"endTime":       result.Slot.EndTime,
		"createdAt":     result.Booking.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) ListSlots(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	open, err := s.slots.ListOpen(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(open))
	for _, a := range open {
		items = append(items, map[string]any{
			"id":        a.ID.String(),
			"date":      a.Date.Format(domain.DateLayout),
			"startTime": a.StartTime,
			"endTime":   a.EndTime,
			"capacity":  a.Capacity,
			"remaining": a.Remaining(),
		})
	}
	return structpb.NewStruct(map[string]any{"slots": items})
}

// toStatus converts an app error into a gRPC status. Causes stay on the server.
func toStatus(err error) error {
	appErr := apperrors.AsAppError(err)
	var code codes.Code
	switch appErr.Code {
	case apperrors.CodeValidation, apperrors.CodeBadRequest:
		code = codes.InvalidArgument
	case apperrors.CodeSlotNotFound, apperrors.CodeNotFound:
		code = codes.NotFound
	case apperrors.CodeSlotClosed, apperrors.CodeSlotInPast:
		code = codes.FailedPrecondition
	case apperrors.CodeSlotFull:
		code = codes.ResourceExhausted
	case apperrors.CodeUnauthorized:
		code = codes.Unauthenticated
	default:
		code = codes.Internal
	}
	return status.Error(code, appErr.Code+": "+appErr.Message)
}

// UnaryLogger logs every call with its method, status code and duration.
func UnaryLogger(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []any{
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if status.Code(err) == codes.Internal {
			log.Error("grpc call failed", attrs...)
		} else {
			log.Info("grpc call completed", attrs...)
		}
		return resp, err
	}
}

var _ AppointmentsServiceServer = (*Server)(nil)
