package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/filter"
	"github.com/maine/ai_news_bot/internal/formatter"
	"github.com/maine/ai_news_bot/internal/logger"
	"github.com/maine/ai_news_bot/internal/retry"
	"github.com/maine/ai_news_bot/internal/store"
	"github.com/maine/ai_news_bot/internal/upsert"
)

type staticReleases []content.Release

func (s staticReleases) Fetch(context.Context) ([]content.Release, error) { return s, nil }

type staticFeed []content.FeedItem

func (s staticFeed) Collect(context.Context) ([]content.FeedItem, error) { return s, nil }

// mockGenerator - мок генератора; незаданные функции дают шаблонный текст.
type mockGenerator struct {
	articleFn  func(rel content.Release) (content.Article, error)
	tutorialFn func(rel content.Release) (content.Tutorial, error)
	newsFn     func(item content.FeedItem) (*content.NewsItem, error)
}

func (m *mockGenerator) ReleaseArticle(_ context.Context, rel content.Release) (content.Article, error) {
	if m.articleFn != nil {
		return m.articleFn(rel)
	}
	return formatter.FallbackArticle(rel), nil
}

func (m *mockGenerator) Tutorial(_ context.Context, rel content.Release) (content.Tutorial, error) {
	if m.tutorialFn != nil {
		return m.tutorialFn(rel)
	}
	return formatter.FallbackTutorial(rel), nil
}

func (m *mockGenerator) NewsSummary(_ context.Context, item content.FeedItem) (*content.NewsItem, error) {
	if m.newsFn != nil {
		return m.newsFn(item)
	}
	n := formatter.FallbackNews(item)
	return &n, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	shares []content.Share
}

func (p *recordingPublisher) Publish(_ context.Context, share content.Share) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shares = append(p.shares, share)
	return true
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shares)
}

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestRunner(st *store.MemoryStore, deps RunnerDeps) *Runner {
	policy := retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
	deps.Upserter = upsert.New(st,
		upsert.WithPolicy(policy),
		upsert.WithClock(func() time.Time { return testNow }),
		upsert.WithLogger(logger.Discard()),
	)
	deps.Formatter = formatter.NewFormatter("https://ai-arne.se")
	deps.Clock = func() time.Time { return testNow }
	deps.Logger = logger.Discard()
	if deps.Pipeline.MaxReleasesPerRun == 0 {
		deps.Pipeline = config.Pipeline{MaxReleasesPerRun: 3, MaxNewsPerRun: 5, MaxLinkedInPosts: 3}
	}
	return NewRunner(deps)
}

func testReleases(n int) staticReleases {
	out := make(staticReleases, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, content.Release{
			Provider:    "openai",
			Name:        "openai-node",
			Version:     fmt.Sprintf("v4.%d.0", i),
			PublishedAt: testNow.Add(-time.Duration(i) * time.Hour),
			URL:         fmt.Sprintf("https://github.com/openai/openai-node/releases/tag/v4.%d.0", i),
			Summary:     "Changes",
		})
	}
	return out
}

func TestRunner_RunReleases_PartialFailure(t *testing.T) {
	st := store.NewMemoryStore()
	pub := &recordingPublisher{}
	gen := &mockGenerator{articleFn: func(rel content.Release) (content.Article, error) {
		if rel.Version == "v4.2.0" {
			return content.Article{}, errors.New("model overloaded")
		}
		return formatter.FallbackArticle(rel), nil
	}}
	r := newTestRunner(st, RunnerDeps{Releases: testReleases(4), Generator: gen, Publisher: pub})

	rep, err := r.RunReleases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Candidates, "capped at max_releases_per_run")
	assert.Equal(t, 2, rep.Created)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Items, 3)
	assert.Equal(t, StatusCreated, rep.Items[0].Status)
	assert.Equal(t, StatusFailed, rep.Items[1].Status)
	assert.Contains(t, rep.Items[1].Error, "model overloaded")
	assert.Equal(t, StatusCreated, rep.Items[2].Status)

	for _, key := range []string{"openai-openai-node-v4-1-0", "openai-openai-node-v4-3-0"} {
		assert.Equal(t, 1, st.Count(content.CollectionPosts, key), key)
		assert.Equal(t, 1, st.Count(content.CollectionTutorials, key), key)
	}
	assert.Zero(t, st.Count(content.CollectionPosts, "openai-openai-node-v4-2-0"))
	assert.Equal(t, 2, pub.count())
	assert.Equal(t, "https://ai-arne.se/post/openai-openai-node-v4-1-0", pub.shares[0].Link)
}

func TestRunner_RunReleases_RerunUpdates(t *testing.T) {
	st := store.NewMemoryStore()
	pub := &recordingPublisher{}
	r := newTestRunner(st, RunnerDeps{Releases: testReleases(2), Generator: &mockGenerator{}, Publisher: pub})

	first, err := r.RunReleases(context.Background())
	require.NoError(t, err)
	second, err := r.RunReleases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 2, second.Updated)
	assert.Zero(t, second.Created)
	assert.Equal(t, first.Items[0].ID, second.Items[0].ID)
	assert.Equal(t, 2, pub.count(), "updates are not shared again")
	assert.Equal(t, 1, st.Count(content.CollectionTutorials, "openai-openai-node-v4-1-0"))
}

func TestRunner_RunReleases_TutorialFallback(t *testing.T) {
	st := store.NewMemoryStore()
	gen := &mockGenerator{tutorialFn: func(content.Release) (content.Tutorial, error) {
		return content.Tutorial{}, errors.New("bad JSON")
	}}
	r := newTestRunner(st, RunnerDeps{Releases: testReleases(1), Generator: gen})

	rep, err := r.RunReleases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Created)

	rec, err := st.FindByKey(context.Background(), content.CollectionTutorials, "openai-openai-node-v4-1-0")
	require.NoError(t, err)
	assert.Equal(t, "Kom igång med openai-node v4.1.0", rec.Title)
}

func TestRunner_RunReleases_WithoutGenerator(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestRunner(st, RunnerDeps{Releases: testReleases(1)})

	rep, err := r.RunReleases(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Items, 1)
	assert.Equal(t, "[OPENAI] openai-node v4.1.0", rep.Items[0].Title)
	assert.False(t, rep.Items[0].Shared)
}

func TestRunner_RunNews(t *testing.T) {
	st := store.NewMemoryStore()
	pub := &recordingPublisher{}
	feed := staticFeed{
		{FeedName: "RSS Feed 1", Title: "OpenAI ships GPT-5", Link: "https://a/1", Snippet: "Big"},
		{FeedName: "RSS Feed 2", Title: "Midjourney v7 released", Link: "https://b/1", Snippet: "Images"},
		{FeedName: "RSS Feed 3", Title: "Celebrity gossip", Link: "https://c/1"},
		{FeedName: "RSS Feed 4", Title: "Anthropic raises", Link: "https://d/1", Snippet: "Funding"},
		{FeedName: "RSS Feed 5", Title: "Broken", Link: "https://e/1"},
	}
	gen := &mockGenerator{newsFn: func(item content.FeedItem) (*content.NewsItem, error) {
		switch item.Title {
		case "Celebrity gossip":
			return nil, nil
		case "Broken":
			return nil, errors.New("timeout")
		}
		n := formatter.FallbackNews(item)
		return &n, nil
	}}
	r := newTestRunner(st, RunnerDeps{
		Collector: feed,
		Filter:    filter.New(config.DefaultExcludeKeywords),
		Generator: gen,
		Publisher: pub,
		Pipeline:  config.Pipeline{MaxReleasesPerRun: 3, MaxNewsPerRun: 5, MaxLinkedInPosts: 1},
	})

	rep, err := r.RunNews(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, rep.Candidates, "midjourney item is filtered out")
	assert.Equal(t, 2, rep.Created)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Shared, "capped at max_linkedin_posts")
	assert.Equal(t, 1, st.Count(content.CollectionNews, "openai-ships-gpt-5"))
	assert.Equal(t, "https://ai-arne.se/news/openai-ships-gpt-5", pub.shares[0].Link)
}

func TestRunner_NotConfigured(t *testing.T) {
	r := NewRunner(RunnerDeps{Logger: logger.Discard()})

	_, err := r.RunReleases(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = r.RunNews(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRunner_CancelledContext(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestRunner(st, RunnerDeps{Releases: testReleases(3)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := r.RunReleases(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rep.Items)
}

func TestVerify(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestRunner(st, RunnerDeps{Releases: testReleases(3)})
	_, err := r.RunReleases(context.Background())
	require.NoError(t, err)

	summaries, err := Verify(context.Background(), st, 2)
	require.NoError(t, err)
	require.Len(t, summaries, len(content.Collections))

	byName := map[content.Collection]CollectionSummary{}
	for _, s := range summaries {
		byName[s.Collection] = s
	}
	assert.Equal(t, 2, byName[content.CollectionPosts].Count)
	assert.Equal(t, 2, byName[content.CollectionTutorials].Count)
	assert.Zero(t, byName[content.CollectionNews].Count)
	assert.NotEmpty(t, byName[content.CollectionPosts].Latest[0].ID)

	_, err = Verify(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
