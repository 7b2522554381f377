package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/maine/ai_news_bot/internal/app"
	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/content"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func statusLabel(s app.ItemStatus) string {
	switch s {
	case app.StatusCreated:
		return green("CREATED")
	case app.StatusUpdated:
		return blue("UPDATED")
	case app.StatusSkipped:
		return yellow("SKIPPED")
	default:
		return red("FAILED ")
	}
}

func printReport(w io.Writer, rep app.Report) {
	fmt.Fprintf(w, "%s: %d candidates, %s created, %s updated, %d skipped, %s failed, %d shared (%s)\n",
		bold(rep.Kind),
		rep.Candidates,
		green(rep.Created),
		blue(rep.Updated),
		rep.Skipped,
		red(rep.Failed),
		rep.Shared,
		rep.Duration.Round(time.Millisecond),
	)
	for _, item := range rep.Items {
		line := fmt.Sprintf("  %s %s", statusLabel(item.Status), item.Title)
		if item.Key != "" {
			line += " [" + item.Key + "]"
		}
		if item.Shared {
			line += " " + green("→ LinkedIn")
		}
		if item.Error != "" {
			line += " " + red(item.Error)
		}
		fmt.Fprintln(w, line)
	}
}

func printVerify(w io.Writer, summaries []app.CollectionSummary) {
	for _, s := range summaries {
		fmt.Fprintf(w, "%s (%d)\n", bold(string(s.Collection)), s.Count)
		if s.Count == 0 {
			fmt.Fprintf(w, "  %s\n", yellow("(empty)"))
			continue
		}
		for _, rec := range s.Latest {
			fmt.Fprintf(w, "  %s  %s  created %s\n", rec.Key, rec.Title, humanize.Time(rec.CreatedAt))
		}
	}
}

func printFeedCheck(w io.Writer, feed config.Feed, items []content.FeedItem, err error) {
	if err != nil {
		fmt.Fprintf(w, "%s %s %s: %v\n", red("✗"), feed.Name, feed.URL, err)
		return
	}
	latest := "no items"
	if len(items) > 0 {
		latest = fmt.Sprintf("latest %s: %s", humanize.Time(items[0].PublishedAt), items[0].Title)
	}
	fmt.Fprintf(w, "%s %s (%s items) %s\n", green("✓"), feed.Name, humanize.Comma(int64(len(items))), latest)
}
