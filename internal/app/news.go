package app

import (
	"context"
	"fmt"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/formatter"
)

// RunNews собирает новости из лент, пересказывает и сохраняет их.
func (r *Runner) RunNews(ctx context.Context) (Report, error) {
	rep := Report{Kind: "news", StartedAt: r.clock()}
	if r.collector == nil || r.filter == nil || r.upserter == nil || r.formatter == nil {
		return rep, ErrNotConfigured
	}

	r.logger.Info("Step 1: Collecting items from RSS feeds...")
	items, err := r.collector.Collect(ctx)
	if err != nil {
		return rep, fmt.Errorf("collect news: %w", err)
	}
	r.logger.Info("collected feed items", "count", len(items))

	r.logger.Info("Step 2: Filtering items...")
	items, err = r.filter.Apply(ctx, items)
	if err != nil {
		return rep, fmt.Errorf("filter news: %w", err)
	}
	items = limit(items, r.cfg.MaxNewsPerRun)
	rep.Candidates = len(items)
	r.logger.Info("after filtering", "count", len(items))

	r.logger.Info("Step 3: Summarizing and saving news...")
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			r.finish(&rep)
			return rep, err
		}
		rep.add(r.processNews(ctx, it, &rep))
	}

	r.finish(&rep)
	return rep, nil
}

func (r *Runner) processNews(ctx context.Context, it content.FeedItem, rep *Report) ItemResult {
	item := ItemResult{Title: it.Title}
	log := r.logger.With("feed", it.FeedName, "link", it.Link)

	var news *content.NewsItem
	if r.generator == nil {
		fallback := formatter.FallbackNews(it)
		news = &fallback
	} else {
		summary, err := r.generator.NewsSummary(ctx, it)
		if err != nil {
			log.Error("summarize news failed", "error", err)
			return failed(item, err)
		}
		if summary == nil {
			log.Info("news skipped as not relevant", "title", it.Title)
			item.Status = StatusSkipped
			return item
		}
		news = summary
	}
	item.Title = news.Title

	res, err := r.upserter.UpsertNews(ctx, *news)
	if err != nil {
		log.Error("save news failed", "error", err)
		return failed(item, err)
	}
	item.ID, item.Key = res.ID, res.Key
	item.Status = StatusCreated
	if res.WasUpdate {
		item.Status = StatusUpdated
	}
	log.Info("news saved", "key", res.Key, "id", res.ID, "status", item.Status)

	if r.canShare(rep, res.WasUpdate) {
		item.Shared = r.publisher.Publish(ctx, r.formatter.NewsShare(news.Title, res.Key))
	}
	return item
}
