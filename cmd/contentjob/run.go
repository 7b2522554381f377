package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maine/ai_news_bot/internal/app"
)

func newRunCommand(opts *rootOptions, kind string) *cobra.Command {
	short := map[string]string{
		"releases": "Turn the newest SDK releases into posts and tutorials",
		"news":     "Summarize RSS news and store them",
	}[kind]

	return &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, opts, kind, cmd)
		},
	}
}

func runOnce(ctx context.Context, opts *rootOptions, kind string, cmd *cobra.Command) error {
	st, closeStore, err := openStore(ctx, opts.root.Store, opts.DryRun)
	if err != nil {
		return err
	}
	defer closeStore()

	runner, err := buildRunner(ctx, opts, st)
	if err != nil {
		return err
	}

	var rep app.Report
	switch kind {
	case "releases":
		rep, err = runner.RunReleases(ctx)
	case "news":
		rep, err = runner.RunNews(ctx)
	default:
		return fmt.Errorf("unknown run kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("%s run: %w", kind, err)
	}

	printReport(cmd.OutOrStdout(), rep)
	return nil
}
