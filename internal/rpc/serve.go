package rpc

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// NewGRPCServer registers srv on a fresh gRPC server with request logging.
func NewGRPCServer(srv AgentServer, l *logrus.Logger) *grpc.Server {
	gs := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(l)))
	RegisterAgentServer(gs, srv)
	return gs
}

// Serve runs gs on lis until ctx ends, then stops it gracefully.
func Serve(ctx context.Context, gs *grpc.Server, lis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gs.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		gs.GracefulStop()
		return nil
	})
	return g.Wait()
}
