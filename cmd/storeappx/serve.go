package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schrebra/storeappx/internal/api"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		host string
		port string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and WebSocket progress stream",
		Long: `Serve exposes the resolver and download pipeline over HTTP: REST
endpoints under /api, a WebSocket progress stream at /stream, and
Prometheus metrics at /metrics. One download run executes at a time;
starting a second one returns 409.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				c.cfg.Server.Host = host
			}
			if port != "" {
				c.cfg.Server.Port = port
			}

			srv, err := api.NewServer(*c.cfg, c.log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides config)")
	return cmd
}
