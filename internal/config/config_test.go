package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoot_Defaults(t *testing.T) {
	cfg, err := ParseRoot([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Pipeline.MaxReleasesPerRun)
	assert.Equal(t, 5, cfg.Pipeline.MaxNewsPerRun)
	assert.Equal(t, 1, cfg.Pipeline.ItemsPerFeed)
	assert.Equal(t, 3, cfg.Pipeline.MaxLinkedInPosts)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.RetryBaseDelay)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "data/records.json", cfg.Store.Path)
	assert.Len(t, cfg.Providers, 3)
	assert.Equal(t, "https://api.linkedin.com/v2/ugcPosts", cfg.LinkedIn.APIURL)
	assert.Contains(t, cfg.Pipeline.ExcludeKeywords, "midjourney")
}

func TestParseRoot_FileValues(t *testing.T) {
	data := `
pipeline:
  max_news_per_run: 2
  retry_base_delay: 250ms
gemini:
  model: gemini-2.5-flash
  min_interval: 1s
store:
  driver: sqlite
feeds:
  - url: https://example.com/rss
  - name: HN
    url: https://news.ycombinator.com/rss
`
	cfg, err := ParseRoot([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Pipeline.MaxNewsPerRun)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.RetryBaseDelay)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, time.Second, cfg.Gemini.MinInterval)
	assert.Equal(t, "data/records.db", cfg.Store.Path)
	require.Len(t, cfg.Feeds, 2)
	assert.Equal(t, "RSS Feed 1", cfg.Feeds[0].Name)
	assert.Equal(t, "HN", cfg.Feeds[1].Name)
}

func TestParseRoot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "pipeline: ["},
		{"unknown driver", "store: {driver: mongo}"},
		{"feed without url", "feeds: [{name: x}]"},
		{"provider without repo", "providers: [{id: openai}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoot([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadRoot_MissingFile(t *testing.T) {
	_, err := LoadRoot(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRoot_RepoConfig(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "pipeline.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("configs/pipeline.yaml not found")
	}
	cfg, err := LoadRoot(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Feeds)
}

func TestLoadEnv(t *testing.T) {
	env := map[string]string{
		"GEMINI_API_KEY":  "key",
		"PUBLIC_BASE_URL": "https://example.se/",
		"RSS_FEEDS":       " https://a/rss , ,https://b/rss",
		"STORE_DSN":       "postgres://localhost/db",
	}
	cfg := loadEnv(func(k string) string { return env[k] })

	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.False(t, cfg.SkipGemini)
	assert.Equal(t, "https://example.se", cfg.PublicBaseURL)
	assert.Equal(t, []string{"https://a/rss", "https://b/rss"}, cfg.RSSFeeds)
	assert.NoError(t, cfg.RequireGemini())

	root, err := ParseRoot([]byte("{}"))
	require.NoError(t, err)
	root.ApplyEnv(cfg)
	require.Len(t, root.Feeds, 2)
	assert.Equal(t, "RSS Feed 2", root.Feeds[1].Name)
	assert.Equal(t, "https://example.se", root.Pipeline.PublicBaseURL)
	assert.Equal(t, "postgres://localhost/db", root.Store.DSN)
}

func TestRequireGemini(t *testing.T) {
	assert.Error(t, (&EnvConfig{}).RequireGemini())
	assert.NoError(t, (&EnvConfig{SkipGemini: true}).RequireGemini())
}
