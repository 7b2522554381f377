package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/sources"
)

func newFeedsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Inspect and discover RSS feeds",
	}
	cmd.AddCommand(newFeedsCheckCommand(opts))
	cmd.AddCommand(newFeedsDiscoverCommand(opts))
	return cmd
}

func newFeedsCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fetch every configured feed and report its state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collector := sources.NewRSSCollector(nil, 0, nil, nil, opts.logger)
			w := cmd.OutOrStdout()

			failed := 0
			for _, feed := range opts.root.Feeds {
				items, err := collector.FetchFeed(cmd.Context(), feed)
				printFeedCheck(w, feed, items, err)
				if err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d feeds failed", failed, len(opts.root.Feeds))
			}
			return nil
		},
	}
}

// discoverOutput повторяет раздел feeds файла pipeline.yaml.
type discoverOutput struct {
	Feeds []config.Feed `yaml:"feeds"`
}

func newFeedsDiscoverCommand(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "discover <site-url>...",
		Short: "Find RSS/Atom feeds on web pages and print them as YAML",
		Example: `  contentjob feeds discover https://openai.com/news/ https://huggingface.co/blog
  contentjob feeds discover https://blog.google/technology/ai/ -o feeds.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := sources.NewDiscoverer(nil, opts.logger)

			var out discoverOutput
			seen := make(map[string]struct{})
			for _, site := range args {
				feeds, err := d.Discover(cmd.Context(), site)
				if err != nil {
					opts.logger.Warn("discover failed", "site", site, "error", err)
					continue
				}
				opts.logger.Info("discovered feeds", "site", site, "count", len(feeds))
				for _, f := range feeds {
					if _, ok := seen[f.URL]; ok {
						continue
					}
					seen[f.URL] = struct{}{}
					out.Feeds = append(out.Feeds, f)
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			return writeFeedsYAML(w, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write YAML to file instead of stdout")
	return cmd
}

func writeFeedsYAML(w io.Writer, out discoverOutput) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode feeds: %w", err)
	}
	return enc.Close()
}
