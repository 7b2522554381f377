package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/logger"
)

func TestReleaseFetcher_Fetch(t *testing.T) {
	var (
		mu      sync.Mutex
		gotAuth string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/openai/openai-node/releases", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `[
			{"name":"v4.1.0","tag_name":"v4.1.0","published_at":"2025-03-01T10:00:00Z","html_url":"https://github.com/openai/openai-node/releases/tag/v4.1.0","body":"Fixes"},
			{"name":"","tag_name":"v4.0.0","published_at":"2025-01-01T10:00:00Z","html_url":"https://github.com/openai/openai-node/releases/tag/v4.0.0","body":""}
		]`)
	})
	mux.HandleFunc("/repos/google-gemini/generative-ai-js/releases", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	})
	mux.HandleFunc("/repos/anthropics/anthropic-sdk-typescript/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"name":"sdk-v0.30.0","tag_name":"sdk-v0.30.0","published_at":"2025-02-01T10:00:00Z","html_url":"https://x","body":%q}]`,
			strings.Repeat("ö", 400))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewReleaseFetcher(
		config.GitHub{APIURL: srv.URL + "/", PerPage: 5, Timeout: time.Second},
		config.DefaultProviders, "gh-token", srv.Client(), logger.Discard(),
	)

	releases, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, releases, 3, "failed provider must not fail the others")

	mu.Lock()
	assert.Equal(t, "Bearer gh-token", gotAuth)
	mu.Unlock()

	// Сортировка от новых к старым
	assert.Equal(t, "v4.1.0", releases[0].Version)
	assert.Equal(t, "anthropic", releases[1].Provider)
	assert.Equal(t, "v4.0.0", releases[2].Version)

	assert.Equal(t, "OpenAI API update", releases[2].Name)
	assert.Equal(t, "Update", releases[2].Summary)
	assert.Equal(t, "sdk", releases[2].Kind)
	assert.Len(t, []rune(releases[1].Summary), 300)
}

func TestReleaseFetcher_AllProvidersFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{not json")
	}))
	defer srv.Close()

	f := NewReleaseFetcher(config.GitHub{APIURL: srv.URL}, config.DefaultProviders, "", srv.Client(), logger.Discard())
	releases, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, releases)
}
