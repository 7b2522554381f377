package main

import (
	"github.com/spf13/cobra"

	"github.com/maine/ai_news_bot/internal/app"
)

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Show the newest stored records per collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, closeStore, err := openStore(ctx, opts.root.Store, opts.DryRun)
			if err != nil {
				return err
			}
			defer closeStore()

			summaries, err := app.Verify(ctx, st, limit)
			if err != nil {
				return err
			}
			printVerify(cmd.OutOrStdout(), summaries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", app.DefaultVerifyLimit, "records per collection")
	return cmd
}
