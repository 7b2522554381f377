package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/formatter"
)

// excerptLimit - максимальная длина excerpt в рунах.
const excerptLimit = 280

// ErrEmptyResponse возвращается, если модель не вернула пригодный JSON.
var ErrEmptyResponse = errors.New("empty or unparseable model response")

// Generator превращает релизы и элементы лент в тексты через Gemini.
type Generator struct {
	client GeminiClient
	model  string
	logger *slog.Logger
}

// NewGenerator создаёт новый генератор.
func NewGenerator(client GeminiClient, cfg config.Gemini, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}
}

type articleResponse struct {
	Title        string `json:"title"`
	Introduction string `json:"introduction"`
	Content      string `json:"content"`
	Excerpt      string `json:"excerpt"`
}

type newsResponse struct {
	Skip    bool   `json:"skip"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

// ReleaseArticle генерирует пост о релизе.
func (g *Generator) ReleaseArticle(ctx context.Context, rel content.Release) (content.Article, error) {
	var resp articleResponse
	if err := g.generateJSON(ctx, releaseArticlePrompt(rel), &resp); err != nil {
		return content.Article{}, fmt.Errorf("release article %s %s: %w", rel.Provider, rel.Version, err)
	}

	title := strings.TrimSpace(resp.Title)
	if title == "" {
		title = formatter.ReleaseTitle(rel)
	}
	excerpt := strings.TrimSpace(resp.Excerpt)
	if excerpt == "" {
		excerpt = resp.Introduction
	}

	paragraphs := append([]string{resp.Introduction}, splitParagraphs(resp.Content)...)
	return content.Article{
		Title:   title,
		Excerpt: content.Truncate(excerpt, excerptLimit),
		Body:    formatter.ArticleHTML(title, paragraphs...) + formatter.SourceLink(rel.URL),
	}, nil
}

// Tutorial генерирует туториал к релизу.
func (g *Generator) Tutorial(ctx context.Context, rel content.Release) (content.Tutorial, error) {
	var sections formatter.TutorialSections
	if err := g.generateJSON(ctx, tutorialPrompt(rel), &sections); err != nil {
		return content.Tutorial{}, fmt.Errorf("tutorial %s %s: %w", rel.Provider, rel.Version, err)
	}
	if strings.TrimSpace(sections.Title) == "" {
		sections.Title = "Kom igång med " + rel.Name
	}
	sections = sections.WithReleaseLink(rel.URL)

	return content.Tutorial{
		Title:     sections.Title,
		Body:      formatter.TutorialHTML(sections),
		SourceURL: rel.URL,
	}, nil
}

// NewsSummary пересказывает элемент ленты. Возвращает nil, если модель
// сочла новость нерелевантной (ответ SKIP).
func (g *Generator) NewsSummary(ctx context.Context, item content.FeedItem) (*content.NewsItem, error) {
	text, err := g.client.GenerateText(ctx, g.model, newsPrompt(item))
	if err != nil {
		return nil, fmt.Errorf("news summary %q: %w", item.Title, err)
	}
	if isSkip(text) {
		g.logger.Debug("model skipped news item", "title", item.Title)
		return nil, nil
	}

	var resp newsResponse
	if err := decodeJSON(text, &resp); err != nil {
		return nil, fmt.Errorf("news summary %q: %w", item.Title, err)
	}
	if resp.Skip {
		return nil, nil
	}

	title := strings.TrimSpace(resp.Title)
	if title == "" {
		title = item.Title
	}
	return &content.NewsItem{
		Title:     title,
		Excerpt:   content.Truncate(strings.TrimSpace(resp.Summary), excerptLimit),
		Body:      formatter.ArticleHTML(title, splitParagraphs(resp.Content)...) + formatter.SourceLink(item.Link),
		SourceURL: item.Link,
		Source:    item.FeedName,
	}, nil
}

func (g *Generator) generateJSON(ctx context.Context, prompt string, out any) error {
	text, err := g.client.GenerateText(ctx, g.model, prompt)
	if err != nil {
		return err
	}
	return decodeJSON(text, out)
}

func decodeJSON(text string, out any) error {
	raw := extractJSON(text)
	if raw == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("parse JSON response: %w", err)
	}
	return nil
}

// isSkip распознаёт отказ модели: голое SKIP, в том числе в кавычках или с точкой.
func isSkip(text string) bool {
	t := strings.Trim(strings.TrimSpace(text), "\"'`.")
	return strings.EqualFold(t, "skip")
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
