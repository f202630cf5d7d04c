package appointments_service_api

import (
	"context"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	gatewayBookPath  = "/v1/bookings"
	gatewaySlotsPath = "/v1/slots"
)

type gatewayCall func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// NewGateway exposes srv as JSON over HTTP under /v1, calling it in process. Errors are rendered
// from the gRPC status the server returns.
func NewGateway(srv AppointmentsServiceServer) (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux()

	if err := mux.HandlePath(http.MethodPost, gatewayBookPath, gatewayHandler(mux, srv.BookSlot, true)); err != nil {
		return nil, err
	}
	if err := mux.HandlePath(http.MethodGet, gatewaySlotsPath, gatewayHandler(mux, srv.ListSlots, false)); err != nil {
		return nil, err
	}
	return mux, nil
}

func gatewayHandler(mux *runtime.ServeMux, call gatewayCall, withBody bool) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx := r.Context()
		inbound, outbound := runtime.MarshalerForRequest(mux, r)

		req := &structpb.Struct{Fields: map[string]*structpb.Value{}}
		if withBody {
			if err := inbound.NewDecoder(r.Body).Decode(req); err != nil {
				runtime.HTTPError(ctx, mux, outbound, w, r, status.Errorf(codes.InvalidArgument, "request body must be a JSON object: %v", err))
				return
			}
		}

		resp, err := call(ctx, req)
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}
		runtime.ForwardResponseMessage(ctx, mux, outbound, w, r, resp)
	}
}
