package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/content"
)

// maxItemsPerFeed ограничивает разбор очень длинных лент.
const maxItemsPerFeed = 100

// RSSCollector загружает новости из RSS/Atom-лент.
type RSSCollector struct {
	feeds        []config.Feed
	itemsPerFeed int
	client       *http.Client
	parser       *gofeed.Parser
	clock        func() time.Time
	logger       *slog.Logger
}

// NewRSSCollector создаёт новый экземпляр. itemsPerFeed <= 0 означает «все элементы».
func NewRSSCollector(feeds []config.Feed, itemsPerFeed int, client *http.Client, clock func() time.Time, logger *slog.Logger) *RSSCollector {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RSSCollector{
		feeds:        feeds,
		itemsPerFeed: itemsPerFeed,
		client:       client,
		parser:       gofeed.NewParser(),
		clock:        clock,
		logger:       logger,
	}
}

// Collect реализует app.NewsCollector: первые itemsPerFeed элементов каждой ленты.
func (c *RSSCollector) Collect(ctx context.Context) ([]content.FeedItem, error) {
	var results []content.FeedItem
	for _, feed := range c.feeds {
		items, err := c.FetchFeed(ctx, feed)
		if err != nil {
			// Ошибка одной ленты не останавливает остальные
			c.logger.Warn("fetch feed failed", "feed", feed.ID, "url", feed.URL, "error", err)
			continue
		}
		if c.itemsPerFeed > 0 && len(items) > c.itemsPerFeed {
			items = items[:c.itemsPerFeed]
		}
		results = append(results, items...)
	}
	return results, nil
}

// FetchFeed загружает и разбирает одну ленту.
func (c *RSSCollector) FetchFeed(ctx context.Context, feed config.Feed) ([]content.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	// Часть сайтов отвечает 403 на пустой User-Agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ai-news-bot/1.0)")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parsed, err := c.parser.Parse(bytes.NewReader(fixXMLEntities(body)))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := parsed.Items
	if len(items) > maxItemsPerFeed {
		items = items[:maxItemsPerFeed]
	}

	now := c.clock()
	out := make([]content.FeedItem, 0, len(items))
	for _, item := range items {
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}
		out = append(out, content.FeedItem{
			FeedID:      feed.ID,
			FeedName:    feed.Name,
			Title:       strings.TrimSpace(item.Title),
			Link:        link,
			Snippet:     selectSnippet(item),
			Content:     strings.TrimSpace(item.Content),
			PublishedAt: publishedAt(item, now),
		})
	}
	return out, nil
}

func publishedAt(item *gofeed.Item, fallback time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return fallback
}

// selectSnippet возвращает текст без разметки: description, иначе content.
func selectSnippet(item *gofeed.Item) string {
	if s := plainText(item.Description); s != "" {
		return s
	}
	return plainText(item.Content)
}

func plainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// fixXMLEntities исправляет распространённые проблемы с XML-сущностями в RSS-лентах.
// Некоторые сайты используют & вместо &amp; в тексте.
func fixXMLEntities(data []byte) []byte {
	result := bytes.ReplaceAll(data, []byte("& "), []byte("&amp; "))
	result = bytes.ReplaceAll(result, []byte("&,"), []byte("&amp;,"))
	result = bytes.ReplaceAll(result, []byte("&."), []byte("&amp;."))
	result = bytes.ReplaceAll(result, []byte("&;"), []byte("&amp;;"))
	return result
}
