package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/logger"
)

// rootOptions - глобальные флаги и то, что из них загружено.
type rootOptions struct {
	ConfigPath string
	DryRun     bool
	LogLevel   string

	root     config.Root
	env      *config.EnvConfig
	logger   *slog.Logger
	closeLog func() error
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "contentjob",
		Short: "AI content pipeline: SDK releases, RSS news, LinkedIn cross-posting",
		Long: `contentjob turns SDK releases and RSS news into stored posts, tutorials
and news items, and announces new records on LinkedIn.

Secrets come from the environment: GEMINI_API_KEY (or SKIP_GEMINI=1),
LINKEDIN_ACCESS_TOKEN, LINKEDIN_ORG_URN, GITHUB_TOKEN, STORE_DSN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.closeLog != nil {
				return opts.closeLog()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "configs/pipeline.yaml", "path to pipeline config")
	cmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "use an in-memory store and do not post to LinkedIn")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(newRunCommand(opts, "releases"))
	cmd.AddCommand(newRunCommand(opts, "news"))
	cmd.AddCommand(newVerifyCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newFeedsCommand(opts))

	return cmd
}

func (o *rootOptions) load() error {
	root, err := config.LoadRoot(o.ConfigPath)
	if err != nil {
		return fmt.Errorf("load pipeline config: %w", err)
	}
	env := config.LoadEnvConfig()
	root.ApplyEnv(env)

	level := root.Log.Level
	if o.LogLevel != "" {
		level = o.LogLevel
	}
	log, closeLog, err := logger.Init(level, root.Log.File)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	o.root, o.env, o.logger, o.closeLog = root, env, log, closeLog
	return nil
}
