package app

import (
	"context"
	"fmt"
	"time"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/store"
)

// DefaultVerifyLimit - сколько последних записей показывать по каждой коллекции.
const DefaultVerifyLimit = 5

// LatestRecord - краткое описание сохранённой записи.
type LatestRecord struct {
	ID        string    `json:"id"`
	Key       string    `json:"slug"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CollectionSummary - последние записи одной коллекции.
type CollectionSummary struct {
	Collection content.Collection `json:"collection"`
	Count      int                `json:"count"`
	Latest     []LatestRecord     `json:"latest"`
}

// Verify возвращает последние записи каждой коллекции, чтобы убедиться,
// что запуски действительно что-то сохраняют.
func Verify(ctx context.Context, lister store.Lister, limit int) ([]CollectionSummary, error) {
	if lister == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = DefaultVerifyLimit
	}

	out := make([]CollectionSummary, 0, len(content.Collections))
	for _, c := range content.Collections {
		records, err := lister.Latest(ctx, c, limit)
		if err != nil {
			return nil, fmt.Errorf("latest %s: %w", c, err)
		}
		summary := CollectionSummary{
			Collection: c,
			Count:      len(records),
			Latest:     make([]LatestRecord, 0, len(records)),
		}
		for _, rec := range records {
			summary.Latest = append(summary.Latest, LatestRecord{
				ID:        rec.ID,
				Key:       rec.Key,
				Title:     rec.Title,
				CreatedAt: rec.CreatedAt,
				UpdatedAt: rec.UpdatedAt,
			})
		}
		out = append(out, summary)
	}
	return out, nil
}
