package rpc

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// #region client-struct
// AgentClient is the protocol runner's handle on a remote agent.
type AgentClient struct {
	conn   *grpc.ClientConn
	client AgentServiceClient
}

// #endregion client-struct

// #region constructor
// NewAgentClient connects to an agent server.
func NewAgentClient(addr string) (*AgentClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &AgentClient{
		conn:   conn,
		client: NewAgentServiceClient(conn),
	}, nil
}

// NewAgentClientWithService creates an AgentClient with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewAgentClientWithService(svc AgentServiceClient) *AgentClient {
	return &AgentClient{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *AgentClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region open
// Open starts a remote session.
func (c *AgentClient) Open(ctx context.Context, req OpenRequest) (OpenResult, error) {
	in, err := toStruct(req)
	if err != nil {
		return OpenResult{}, fmt.Errorf("open rpc: %w", err)
	}
	out, err := c.client.Open(ctx, in)
	if err != nil {
		return OpenResult{}, fmt.Errorf("open rpc: %w", err)
	}
	var res OpenResult
	if err := fromStruct(out, &res); err != nil {
		return OpenResult{}, fmt.Errorf("open rpc: %w", err)
	}
	return res, nil
}

// OpenProfile is Open for a loaded profile.
func (c *AgentClient) OpenProfile(ctx context.Context, space *profile.LinearAdditive, req OpenRequest) (OpenResult, error) {
	req.Profile = space.ToFile()
	return c.Open(ctx, req)
}

// #endregion open

// #region receive
// Receive sends the opponent's offer and returns the agent's move.
func (c *AgentClient) Receive(ctx context.Context, req ReceiveRequest) (TurnResult, error) {
	in, err := toStruct(req)
	if err != nil {
		return TurnResult{}, fmt.Errorf("receive rpc: %w", err)
	}
	out, err := c.client.Receive(ctx, in)
	if err != nil {
		return TurnResult{}, fmt.Errorf("receive rpc: %w", err)
	}
	var res TurnResult
	if err := fromStruct(out, &res); err != nil {
		return TurnResult{}, fmt.Errorf("receive rpc: %w", err)
	}
	return res, nil
}

// #endregion receive

// #region close-session
// CloseSession ends a remote session.
func (c *AgentClient) CloseSession(ctx context.Context, req CloseRequest) (CloseResult, error) {
	in, err := toStruct(req)
	if err != nil {
		return CloseResult{}, fmt.Errorf("close rpc: %w", err)
	}
	out, err := c.client.Close(ctx, in)
	if err != nil {
		return CloseResult{}, fmt.Errorf("close rpc: %w", err)
	}
	var res CloseResult
	if err := fromStruct(out, &res); err != nil {
		return CloseResult{}, fmt.Errorf("close rpc: %w", err)
	}
	return res, nil
}

// #endregion close-session
