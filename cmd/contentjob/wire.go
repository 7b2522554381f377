package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maine/ai_news_bot/internal/app"
	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/filter"
	"github.com/maine/ai_news_bot/internal/formatter"
	"github.com/maine/ai_news_bot/internal/gemini"
	"github.com/maine/ai_news_bot/internal/linkedin"
	"github.com/maine/ai_news_bot/internal/retry"
	"github.com/maine/ai_news_bot/internal/sources"
	"github.com/maine/ai_news_bot/internal/store"
	"github.com/maine/ai_news_bot/internal/store/pgstore"
	"github.com/maine/ai_news_bot/internal/store/sqlitestore"
	"github.com/maine/ai_news_bot/internal/upsert"
)

// recordStore - хранилище, которое умеет и upsert, и выдачу последних записей.
type recordStore interface {
	store.RecordStore
	store.Lister
}

// openStore открывает хранилище, выбранное в конфиге. Хранилище создаётся
// один раз на процесс и закрывается возвращённой функцией.
func openStore(ctx context.Context, cfg config.Store, dryRun bool) (recordStore, func() error, error) {
	noop := func() error { return nil }
	if dryRun {
		return store.NewMemoryStore(), noop, nil
	}

	switch cfg.Driver {
	case "memory":
		return store.NewMemoryStore(), noop, nil
	case "file":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, nil, err
		}
		return store.NewFileStore(cfg.Path), noop, nil
	case "sqlite":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, nil, err
		}
		st, err := sqlitestore.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, st.Close, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("store.dsn (or STORE_DSN) is required for postgres")
		}
		st, err := pgstore.Open(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return nil
}

// buildRunner собирает зависимости запусков.
func buildRunner(ctx context.Context, opts *rootOptions, st store.RecordStore) (*app.Runner, error) {
	root, env, log := opts.root, opts.env, opts.logger

	var gen app.Generator
	if env.SkipGemini {
		log.Info("SKIP_GEMINI=1: using template texts")
	} else {
		if err := env.RequireGemini(); err != nil {
			return nil, err
		}
		client, err := gemini.NewClient(ctx, env.GeminiAPIKey, root.Gemini, log)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		gen = gemini.NewGenerator(client, root.Gemini, log)
	}

	var pub app.Publisher
	if opts.DryRun {
		log.Info("dry run: in-memory store, LinkedIn disabled")
	} else {
		pub = newPublisher(root.LinkedIn, env, log)
	}

	engine := upsert.New(st,
		upsert.WithPolicy(retry.Policy{
			MaxAttempts: root.Pipeline.RetryAttempts,
			BaseDelay:   root.Pipeline.RetryBaseDelay,
		}),
		upsert.WithLogger(log),
	)

	return app.NewRunner(app.RunnerDeps{
		Releases:  sources.NewReleaseFetcher(root.GitHub, root.Providers, env.GitHubToken, nil, log),
		Collector: sources.NewRSSCollector(root.Feeds, root.Pipeline.ItemsPerFeed, nil, time.Now, log),
		Filter:    filter.New(root.Pipeline.ExcludeKeywords),
		Generator: gen,
		Upserter:  engine,
		Publisher: pub,
		Formatter: formatter.NewFormatter(root.Pipeline.PublicBaseURL),
		Pipeline:  root.Pipeline,
		Logger:    log,
	}), nil
}

func newPublisher(cfg config.LinkedIn, env *config.EnvConfig, log *slog.Logger) app.Publisher {
	client := linkedin.NewClient(cfg.APIURL, env.LinkedInToken, env.LinkedInOrgURN, cfg.Timeout, nil)
	p := linkedin.NewPublisher(client, env.LinkedInToken, env.LinkedInOrgURN, log)
	if !p.Enabled() {
		return nil
	}
	return p
}
