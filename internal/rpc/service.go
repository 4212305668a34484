package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages are google.protobuf.Struct bodies; their fields are the JSON
// forms of the request and response types in types.go.

const (
	ServiceName = "negotiation.v1.Agent"

	openMethod    = "/negotiation.v1.Agent/Open"
	receiveMethod = "/negotiation.v1.Agent/Receive"
	closeMethod   = "/negotiation.v1.Agent/Close"
)

// #region server-api
// AgentServer is the server API of the negotiation agent service.
type AgentServer interface {
	Open(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Receive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Close(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAgentServer attaches srv to a gRPC server.
func RegisterAgentServer(s grpc.ServiceRegistrar, srv AgentServer) {
	s.RegisterService(&agentServiceDesc, srv)
}

var agentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AgentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Open", Handler: unaryHandler(openMethod, AgentServer.Open)},
		{MethodName: "Receive", Handler: unaryHandler(receiveMethod, AgentServer.Receive)},
		{MethodName: "Close", Handler: unaryHandler(closeMethod, AgentServer.Close)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "negotiation/v1/agent.proto",
}

type unaryMethod func(AgentServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AgentServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AgentServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion server-api

// #region client-api
// AgentServiceClient is the client API of the negotiation agent service.
type AgentServiceClient interface {
	Open(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Receive(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Close(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type agentServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAgentServiceClient wraps a connection.
func NewAgentServiceClient(cc grpc.ClientConnInterface) AgentServiceClient {
	return &agentServiceClient{cc: cc}
}

func (c *agentServiceClient) Open(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, openMethod, in, opts)
}

func (c *agentServiceClient) Receive(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, receiveMethod, in, opts)
}

func (c *agentServiceClient) Close(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, closeMethod, in, opts)
}

func (c *agentServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion client-api
