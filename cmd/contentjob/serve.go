package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maine/ai_news_bot/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP triggers for scheduled runs",
		Long: `Serve HTTP triggers for an external scheduler:

  POST /run/releases   run the releases pipeline
  POST /run/news       run the news pipeline
  GET  /verify         newest records per collection
  GET  /healthz        liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, closeStore, err := openStore(ctx, opts.root.Store, opts.DryRun)
			if err != nil {
				return err
			}
			defer closeStore()

			runner, err := buildRunner(ctx, opts, st)
			if err != nil {
				return err
			}

			cfg := opts.root.Server
			if addr != "" {
				cfg.Addr = addr
			}
			return server.NewServer(runner, st, cfg, opts.logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
