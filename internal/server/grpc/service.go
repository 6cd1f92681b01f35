package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the status service.
const ServiceName = "avifconv.StatusService"

const (
	methodGetStats    = "/" + ServiceName + "/GetStats"
	methodListTasks   = "/" + ServiceName + "/ListTasks"
	methodSaveArchive = "/" + ServiceName + "/SaveArchive"
	methodWatch       = "/" + ServiceName + "/Watch"
)

// StatusServer is the server API of avifconv.StatusService. Messages are
// generic structs; image bytes never cross the wire.
type StatusServer interface {
	GetStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListTasks(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SaveArchive(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Watch(*emptypb.Empty, WatchServer) error
}

// WatchServer is the server side of the Watch stream.
type WatchServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type watchServer struct {
	grpc.ServerStream
}

func (x *watchServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterStatusServer registers srv on s.
func RegisterStatusServer(s grpc.ServiceRegistrar, srv StatusServer) {
	s.RegisterService(&StatusServiceDesc, srv)
}

func unaryHandler(method string, call func(StatusServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StatusServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(StatusServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(StatusServer).Watch(m, &watchServer{stream})
}

// StatusServiceDesc describes avifconv.StatusService for grpc.Server.
var StatusServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStats", Handler: unaryHandler(methodGetStats, StatusServer.GetStats)},
		{MethodName: "ListTasks", Handler: unaryHandler(methodListTasks, StatusServer.ListTasks)},
		{MethodName: "SaveArchive", Handler: unaryHandler(methodSaveArchive, StatusServer.SaveArchive)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "avifconv/status.proto",
}

// StatusClient calls avifconv.StatusService.
type StatusClient struct {
	cc grpc.ClientConnInterface
}

func NewStatusClient(cc grpc.ClientConnInterface) *StatusClient {
	return &StatusClient{cc: cc}
}

func (c *StatusClient) invoke(ctx context.Context, method string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StatusClient) GetStats(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetStats, opts...)
}

func (c *StatusClient) ListTasks(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodListTasks, opts...)
}

func (c *StatusClient) SaveArchive(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodSaveArchive, opts...)
}

// Watch opens the event stream. Call Recv on the result until it fails.
func (c *StatusClient) Watch(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &StatusServiceDesc.Streams[0], methodWatch, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(new(emptypb.Empty)); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
