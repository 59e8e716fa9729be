package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpattn/staffing/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(global)
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, imports, exports, err := a.services(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			handler, err := server.NewHandler(server.Dependencies{
				Config:  a.cfg,
				Log:     a.log,
				Imports: imports,
				Exports: exports,
				Ready:   func(ctx context.Context) error { return conn.Pool.Ping(ctx) },
			})
			if err != nil {
				return err
			}
			return server.Run(ctx, a.cfg.Server, handler, a.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}
