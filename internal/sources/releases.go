package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/content"
)

// summaryLimit - длина краткого описания релиза в рунах.
const summaryLimit = 300

// ReleaseFetcher опрашивает GitHub Releases API для каждого провайдера.
type ReleaseFetcher struct {
	providers []config.Provider
	apiURL    string
	perPage   int
	token     string
	client    *http.Client
	logger    *slog.Logger
}

// NewReleaseFetcher создаёт новый экземпляр. token может быть пустым.
func NewReleaseFetcher(cfg config.GitHub, providers []config.Provider, token string, client *http.Client, logger *slog.Logger) *ReleaseFetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 5
	}
	return &ReleaseFetcher{
		providers: providers,
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		perPage:   perPage,
		token:     token,
		client:    client,
		logger:    logger,
	}
}

type githubRelease struct {
	Name        string    `json:"name"`
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
	Body        string    `json:"body"`
}

// Fetch реализует app.ReleaseSource. Провайдеры опрашиваются параллельно;
// ошибка одного провайдера логируется и не влияет на остальных.
// Результат отсортирован от новых к старым.
func (f *ReleaseFetcher) Fetch(ctx context.Context) ([]content.Release, error) {
	perProvider := make([][]content.Release, len(f.providers))

	var g errgroup.Group
	for i, p := range f.providers {
		g.Go(func() error {
			releases, err := f.fetchProvider(ctx, p)
			if err != nil {
				f.logger.Warn("fetch releases failed", "provider", p.ID, "repo", p.Repo, "error", err)
				return nil
			}
			perProvider[i] = releases
			return nil
		})
	}
	_ = g.Wait()

	var all []content.Release
	for _, releases := range perProvider {
		all = append(all, releases...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	return all, nil
}

func (f *ReleaseFetcher) fetchProvider(ctx context.Context, p config.Provider) ([]content.Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", f.apiURL, p.Repo, f.perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var raw []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode releases: %w", err)
	}

	out := make([]content.Release, 0, len(raw))
	for _, r := range raw {
		out = append(out, toRelease(p, r))
	}
	return out, nil
}

func toRelease(p config.Provider, r githubRelease) content.Release {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = p.DefaultName
	}
	if name == "" {
		name = p.ID + " update"
	}

	summary := content.Truncate(r.Body, summaryLimit)
	if summary == "" {
		summary = "Update"
	}

	return content.Release{
		Provider:    p.ID,
		Name:        name,
		Version:     r.TagName,
		Kind:        "sdk",
		PublishedAt: r.PublishedAt,
		URL:         r.HTMLURL,
		Summary:     summary,
	}
}
