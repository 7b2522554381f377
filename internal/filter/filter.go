package filter

import (
	"context"
	"strings"

	"github.com/maine/ai_news_bot/internal/content"
)

// Filter отсекает новости, не относящиеся к разработке, и дубликаты.
type Filter struct {
	excludeKeywords []string
}

// New создаёт экземпляр фильтра. Ключевые слова сравниваются без учёта регистра.
func New(excludeKeywords []string) *Filter {
	keywords := make([]string, 0, len(excludeKeywords))
	for _, kw := range excludeKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &Filter{excludeKeywords: keywords}
}

// Apply реализует app.NewsFilter. Порядок элементов сохраняется.
func (f *Filter) Apply(ctx context.Context, items []content.FeedItem) ([]content.FeedItem, error) {
	_ = ctx // фильтр не обращается к сети

	seen := make(map[string]struct{})
	filtered := make([]content.FeedItem, 0, len(items))

	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.Link) == "" {
			continue
		}

		if f.Excluded(item) {
			continue
		}

		key := canonicalKey(item)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		filtered = append(filtered, item)
	}

	return filtered, nil
}

// Excluded сообщает, содержит ли новость одно из исключающих ключевых слов.
func (f *Filter) Excluded(item content.FeedItem) bool {
	text := strings.ToLower(item.Title + " " + item.Snippet + " " + item.Content)
	for _, kw := range f.excludeKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func canonicalKey(item content.FeedItem) string {
	base := strings.ToLower(strings.TrimSpace(item.Link))
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		base = strings.ToLower(strings.TrimSpace(item.Title))
	}
	return base
}
