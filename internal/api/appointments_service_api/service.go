package appointments_service_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "appointments.v1.AppointmentsService"

const (
	bookSlotMethod  = "/" + ServiceName + "/BookSlot"
	listSlotsMethod = "/" + ServiceName + "/ListSlots"
)

// AppointmentsServiceServer is the server API. Requests and replies are google.protobuf.Struct
// documents with the same field names as the HTTP API.
type AppointmentsServiceServer interface {
	BookSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AppointmentsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BookSlot", Handler: bookSlotHandler},
		{MethodName: "ListSlots", Handler: listSlotsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "appointments/v1/appointments.proto",
}

func RegisterAppointmentsServiceServer(s grpc.ServiceRegistrar, srv AppointmentsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func bookSlotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AppointmentsServiceServer).BookSlot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: bookSlotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AppointmentsServiceServer).BookSlot(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listSlotsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AppointmentsServiceServer).ListSlots(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listSlotsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AppointmentsServiceServer).ListSlots(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) BookSlot(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, bookSlotMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSlots(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listSlotsMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
