package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"instituto-amostral/internal/api"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			a, err := c.app()
			if err != nil {
				return err
			}
			if err := a.OpenStore(); err != nil {
				c.logger.Warn("running without a database, jobs and plan history are disabled", zap.Error(err))
			}
			ctx, stop := signalContext(context.Background())
			defer stop()
			return api.Serve(ctx, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
