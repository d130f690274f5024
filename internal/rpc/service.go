// Package rpc serves the game over gRPC. Messages are google.protobuf.Struct
// documents carrying the same JSON shapes as the HTTP API, so the service
// needs no generated code.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gachamon.v1.GameService"

// GameServer is the server API for GameService.
type GameServer interface {
	Wallet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Quote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Rates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Pull(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Collection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Creature(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Appraise(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Sell(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartBattle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Battle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Turn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Shuffle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetShuffle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Toss(context.Context, *structpb.Struct) (*structpb.Struct, error)
	OfferTrade(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AcceptTrade(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeclineTrade(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(GameServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GameServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GameServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes GameService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Wallet", GameServer.Wallet),
		unary("Quote", GameServer.Quote),
		unary("Rates", GameServer.Rates),
		unary("Pull", GameServer.Pull),
		unary("Collection", GameServer.Collection),
		unary("Creature", GameServer.Creature),
		unary("Appraise", GameServer.Appraise),
		unary("Sell", GameServer.Sell),
		unary("StartBattle", GameServer.StartBattle),
		unary("Battle", GameServer.Battle),
		unary("Turn", GameServer.Turn),
		unary("Shuffle", GameServer.Shuffle),
		unary("ResetShuffle", GameServer.ResetShuffle),
		unary("Toss", GameServer.Toss),
		unary("OfferTrade", GameServer.OfferTrade),
		unary("AcceptTrade", GameServer.AcceptTrade),
		unary("DeclineTrade", GameServer.DeclineTrade),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gachamon/v1/game.proto",
}

// RegisterGameServer registers srv on s.
func RegisterGameServer(s grpc.ServiceRegistrar, srv GameServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls GameService methods by name.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Call invokes method with a JSON-shaped request.
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
