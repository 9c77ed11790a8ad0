package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finitefield.org/portfolio-web/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr string
		dir  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site directory over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if dir != "" {
				cfg.Server.Dir = dir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, server.New(cfg.Server, logger), logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&dir, "dir", "", "site directory (overrides server.dir)")
	return cmd
}
