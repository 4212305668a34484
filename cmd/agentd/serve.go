package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/rpc"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var listen, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the negotiation service over gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			if dbPath != "" {
				cfg.Server.DBPath = dbPath
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			st, err := store.NewStore(cfg.Server.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			srv, err := rpc.NewServer(cfg.Agent(), cfg.Session.Capacity,
				rpc.WithServerLogger(log),
				rpc.WithSessionRecorder(st),
			)
			if err != nil {
				return err
			}
			lis, err := net.Listen("tcp", cfg.Server.Listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Server.Listen, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.WithFields(logrus.Fields{
				"listen":   lis.Addr().String(),
				"db":       cfg.Server.DBPath,
				"capacity": cfg.Session.Capacity,
			}).Info("agent service ready")
			err = rpc.Serve(ctx, rpc.NewGRPCServer(srv, log), lis)
			log.WithField("open_sessions", srv.Len()).Info("agent service stopped")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default server.listen)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite path (default server.db_path)")
	return cmd
}
