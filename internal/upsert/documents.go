package upsert

import (
	"context"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/slug"
)

// ExcerptLimit - максимальная длина excerpt в рунах.
const ExcerptLimit = 280

// UpsertPost сохраняет пост о релизе. Ключ: provider-name-version.
func (e *Engine) UpsertPost(ctx context.Context, rel content.Release, art content.Article) (Result, error) {
	doc := content.Document{
		Title:     art.Title,
		Excerpt:   content.Truncate(art.Excerpt, ExcerptLimit),
		Body:      art.Body,
		SourceURL: rel.URL,
		Post:      &content.PostFields{Provider: rel.Provider},
	}
	return e.Upsert(ctx, content.CollectionPosts, slug.Release(rel.Provider, rel.Name, rel.Version), doc)
}

// UpsertNews сохраняет новость. Ключ строится по заголовку.
func (e *Engine) UpsertNews(ctx context.Context, item content.NewsItem) (Result, error) {
	doc := content.Document{
		Title:     item.Title,
		Excerpt:   content.Truncate(item.Excerpt, ExcerptLimit),
		Body:      item.Body,
		SourceURL: item.SourceURL,
		News:      &content.NewsFields{Source: item.Source},
	}
	return e.Upsert(ctx, content.CollectionNews, slug.Title(item.Title), doc)
}

// UpsertTutorial сохраняет туториал к посту. У поста не больше одного туториала:
// ключом служит ключ поста.
func (e *Engine) UpsertTutorial(ctx context.Context, parentKey string, tut content.Tutorial) (Result, error) {
	doc := content.Document{
		Title:     tut.Title,
		Body:      tut.Body,
		SourceURL: tut.SourceURL,
		Tutorial:  &content.TutorialFields{ParentKey: parentKey},
	}
	return e.Upsert(ctx, content.CollectionTutorials, parentKey, doc)
}
