package app

import (
	"context"
	"fmt"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/formatter"
)

// RunReleases превращает свежие релизы SDK в посты и туториалы.
// Ошибка одного релиза попадает в отчёт и не останавливает остальные.
func (r *Runner) RunReleases(ctx context.Context) (Report, error) {
	rep := Report{Kind: "releases", StartedAt: r.clock()}
	if r.releases == nil || r.upserter == nil || r.formatter == nil {
		return rep, ErrNotConfigured
	}

	r.logger.Info("Step 1: Fetching SDK releases...")
	releases, err := r.releases.Fetch(ctx)
	if err != nil {
		return rep, fmt.Errorf("fetch releases: %w", err)
	}
	r.logger.Info("fetched releases", "count", len(releases))

	releases = limit(releases, r.cfg.MaxReleasesPerRun)
	rep.Candidates = len(releases)

	r.logger.Info("Step 2: Generating and saving posts...", "count", len(releases))
	for _, rel := range releases {
		if err := ctx.Err(); err != nil {
			r.finish(&rep)
			return rep, err
		}
		rep.add(r.processRelease(ctx, rel, &rep))
	}

	r.finish(&rep)
	return rep, nil
}

func (r *Runner) processRelease(ctx context.Context, rel content.Release, rep *Report) ItemResult {
	item := ItemResult{Title: formatter.ReleaseTitle(rel)}
	log := r.logger.With("provider", rel.Provider, "version", rel.Version)

	art := formatter.FallbackArticle(rel)
	if r.generator != nil {
		generated, err := r.generator.ReleaseArticle(ctx, rel)
		if err != nil {
			log.Error("generate article failed", "error", err)
			return failed(item, err)
		}
		art = generated
	}
	item.Title = art.Title

	res, err := r.upserter.UpsertPost(ctx, rel, art)
	if err != nil {
		log.Error("save post failed", "error", err)
		return failed(item, err)
	}
	item.ID, item.Key = res.ID, res.Key
	item.Status = StatusCreated
	if res.WasUpdate {
		item.Status = StatusUpdated
	}
	log.Info("post saved", "key", res.Key, "id", res.ID, "status", item.Status)

	// Туториал вторичен: ошибка не отменяет сохранённый пост
	if err := r.saveTutorial(ctx, rel, res.Key); err != nil {
		log.Warn("save tutorial failed", "key", res.Key, "error", err)
		item.Error = "tutorial: " + err.Error()
	}

	if r.canShare(rep, res.WasUpdate) {
		item.Shared = r.publisher.Publish(ctx, r.formatter.ReleaseShare(rel, res.Key))
	}
	return item
}

func (r *Runner) saveTutorial(ctx context.Context, rel content.Release, postKey string) error {
	tut := formatter.FallbackTutorial(rel)
	if r.generator != nil {
		generated, err := r.generator.Tutorial(ctx, rel)
		if err != nil {
			r.logger.Warn("generate tutorial failed, using template", "key", postKey, "error", err)
		} else {
			tut = generated
		}
	}

	if _, err := r.upserter.UpsertTutorial(ctx, postKey, tut); err != nil {
		return err
	}
	return nil
}

func failed(item ItemResult, err error) ItemResult {
	item.Status = StatusFailed
	item.Error = err.Error()
	return item
}
