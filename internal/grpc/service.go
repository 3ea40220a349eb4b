package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "fightermatchup.v1.MatchupService"

const (
	methodRecommend = "/" + ServiceName + "/Recommend"
	methodPromote   = "/" + ServiceName + "/Promote"
	methodCatalog   = "/" + ServiceName + "/Catalog"
	methodWinRates  = "/" + ServiceName + "/WinRates"
	methodOpponents = "/" + ServiceName + "/Opponents"
	methodBatch     = "/" + ServiceName + "/Batch"
	methodPools     = "/" + ServiceName + "/Pools"
	methodEvents    = "/" + ServiceName + "/StreamEvents"
)

// MatchupServiceServer is the server API for MatchupService. Messages are
// structpb.Struct values carrying the same JSON shapes as the HTTP API.
type MatchupServiceServer interface {
	Recommend(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Promote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Catalog(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	WinRates(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Opponents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Batch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Pools(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StreamEvents(*emptypb.Empty, grpc.ServerStream) error
}

// RegisterMatchupServiceServer registers srv on s
func RegisterMatchupServiceServer(s grpc.ServiceRegistrar, srv MatchupServiceServer) {
	s.RegisterService(&MatchupServiceDesc, srv)
}

func unary[In any](method string, call func(MatchupServiceServer, context.Context, *In) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(In)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MatchupServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MatchupServiceServer), ctx, req.(*In))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamEventsHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(MatchupServiceServer).StreamEvents(m, stream)
}

// MatchupServiceDesc is the grpc.ServiceDesc for MatchupService
var MatchupServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchupServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Recommend", Handler: unary(methodRecommend, MatchupServiceServer.Recommend)},
		{MethodName: "Promote", Handler: unary(methodPromote, MatchupServiceServer.Promote)},
		{MethodName: "Catalog", Handler: unary(methodCatalog, MatchupServiceServer.Catalog)},
		{MethodName: "WinRates", Handler: unary(methodWinRates, MatchupServiceServer.WinRates)},
		{MethodName: "Opponents", Handler: unary(methodOpponents, MatchupServiceServer.Opponents)},
		{MethodName: "Batch", Handler: unary(methodBatch, MatchupServiceServer.Batch)},
		{MethodName: "Pools", Handler: unary(methodPools, MatchupServiceServer.Pools)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamEvents", Handler: streamEventsHandler, ServerStreams: true},
	},
	Metadata: "fightermatchup/v1/matchup.proto",
}

// Client is a thin MatchupService client
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Recommend resolves one matchup request
func (c *Client) Recommend(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodRecommend, in, opts...)
}

// Promote runs a promote on a board
func (c *Client) Promote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodPromote, in, opts...)
}

// Catalog fetches the catalog projection
func (c *Client) Catalog(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCatalog, &emptypb.Empty{}, opts...)
}

// WinRates fetches the sanitized win matrix
func (c *Client) WinRates(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodWinRates, &emptypb.Empty{}, opts...)
}

// Opponents ranks opponents for one fighter
func (c *Client) Opponents(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodOpponents, in, opts...)
}

// Batch draws a batch of pairings
func (c *Client) Batch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodBatch, in, opts...)
}

// Pools builds fair player pools
func (c *Client) Pools(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodPools, in, opts...)
}

// StreamEvents subscribes to the activity feed
func (c *Client) StreamEvents(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &MatchupServiceDesc.Streams[0], methodEvents, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
