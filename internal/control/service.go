package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "symdrift.control.v1.Control"

// #region server-interface

// ControlServer is the server API for the control service. Requests and
// responses are protobuf well-known types so no generated code is needed.
type ControlServer interface {
	Start(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Pause(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Step(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Reset(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Analyze(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// Register attaches srv to a grpc.Server.
func Register(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// #endregion server-interface

// #region service-desc

// ServiceDesc describes the control service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Start", Handler: emptyHandler("Start", ControlServer.Start)},
		{MethodName: "Pause", Handler: emptyHandler("Pause", ControlServer.Pause)},
		{MethodName: "Step", Handler: stepHandler},
		{MethodName: "Reset", Handler: emptyHandler("Reset", ControlServer.Reset)},
		{MethodName: "Snapshot", Handler: emptyHandler("Snapshot", ControlServer.Snapshot)},
		{MethodName: "Analyze", Handler: emptyHandler("Analyze", ControlServer.Analyze)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "symdrift/control/v1/control.proto",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type emptyCall func(ControlServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)

func emptyHandler(name string, call emptyCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ControlServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func stepHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Step(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Step")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Step(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc
