package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/slug"
)

// maxCandidates ограничивает число проверяемых ссылок на странице.
const maxCandidates = 10

// Discoverer ищет RSS/Atom-ленты на страницах сайтов.
type Discoverer struct {
	client *http.Client
	parser *gofeed.Parser
	logger *slog.Logger
}

// NewDiscoverer создаёт новый экземпляр.
func NewDiscoverer(client *http.Client, logger *slog.Logger) *Discoverer {
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{client: client, parser: gofeed.NewParser(), logger: logger}
}

// Discover возвращает ленты, найденные по адресу siteURL. Если сам адрес
// является лентой, возвращается он. Каждая найденная ссылка проверяется
// разбором, в результат попадают только настоящие ленты.
func (d *Discoverer) Discover(ctx context.Context, siteURL string) ([]config.Feed, error) {
	body, finalURL, err := d.fetch(ctx, siteURL)
	if err != nil {
		return nil, err
	}

	if feed, err := d.parser.Parse(bytes.NewReader(fixXMLEntities(body))); err == nil {
		return []config.Feed{feedConfig(finalURL, feed)}, nil
	}

	candidates, err := feedLinks(body, finalURL)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	var feeds []config.Feed
	for _, link := range candidates {
		raw, final, err := d.fetch(ctx, link)
		if err != nil {
			d.logger.Debug("candidate fetch failed", "url", link, "error", err)
			continue
		}
		feed, err := d.parser.Parse(bytes.NewReader(fixXMLEntities(raw)))
		if err != nil {
			d.logger.Debug("candidate is not a feed", "url", link, "error", err)
			continue
		}
		feeds = append(feeds, feedConfig(final, feed))
	}
	return feeds, nil
}

func (d *Discoverer) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ai-news-bot/1.0)")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Request.URL.String(), nil
}

// feedLinks собирает ссылки на ленты: сначала <link rel="alternate">,
// затем обычные ссылки, похожие на RSS.
func feedLinks(page []byte, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(href string) {
		full, err := resolveURL(baseURL, href)
		if err != nil {
			return
		}
		full = normalizeURL(full)
		if full == normalizeURL(baseURL) {
			return
		}
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}
		out = append(out, full)
	}

	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		typ := strings.ToLower(s.AttrOr("type", ""))
		if strings.Contains(typ, "rss") || strings.Contains(typ, "atom") {
			add(s.AttrOr("href", ""))
		}
	})

	var anchors []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if isFeedURL(href) || strings.Contains(strings.ToLower(s.Text()), "rss") {
			anchors = append(anchors, href)
		}
	})
	sort.SliceStable(anchors, func(i, j int) bool { return len(anchors[i]) < len(anchors[j]) })
	for _, href := range anchors {
		add(href)
	}

	return out, nil
}

func feedConfig(feedURL string, feed *gofeed.Feed) config.Feed {
	name := strings.TrimSpace(feed.Title)
	if name == "" {
		name = feedURL
	}
	return config.Feed{ID: slug.Title(name), Name: name, URL: feedURL}
}

// isFeedURL проверяет, похож ли адрес на RSS/Atom-ленту.
func isFeedURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range []string{"/rss", "/feed", ".rss", ".xml", "/atom"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func resolveURL(baseURL, ref string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	resolved := base.ResolveReference(rel)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", resolved.Scheme)
	}
	return resolved.String(), nil
}

func normalizeURL(rawURL string) string {
	return strings.TrimSuffix(strings.TrimSpace(rawURL), "/")
}
