package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/upsert"
)

// ErrNotConfigured возвращается, когда запуск начат без обязательных зависимостей.
var ErrNotConfigured = errors.New("pipeline dependencies not configured")

// Clock определяет источник времени (удобно подменять в тестах).
type Clock func() time.Time

// ReleaseSource возвращает свежие релизы SDK, от новых к старым.
type ReleaseSource interface {
	Fetch(ctx context.Context) ([]content.Release, error)
}

// NewsCollector агрегирует элементы из RSS-лент.
type NewsCollector interface {
	Collect(ctx context.Context) ([]content.FeedItem, error)
}

// NewsFilter отсеивает дубликаты и нерелевантные новости.
type NewsFilter interface {
	Apply(ctx context.Context, items []content.FeedItem) ([]content.FeedItem, error)
}

// Generator пишет тексты с помощью LLM. NewsSummary возвращает nil,
// если новость нужно пропустить.
type Generator interface {
	ReleaseArticle(ctx context.Context, rel content.Release) (content.Article, error)
	Tutorial(ctx context.Context, rel content.Release) (content.Tutorial, error)
	NewsSummary(ctx context.Context, item content.FeedItem) (*content.NewsItem, error)
}

// Upserter сохраняет документы идемпотентно по ключу.
type Upserter interface {
	UpsertPost(ctx context.Context, rel content.Release, art content.Article) (upsert.Result, error)
	UpsertTutorial(ctx context.Context, parentKey string, tut content.Tutorial) (upsert.Result, error)
	UpsertNews(ctx context.Context, item content.NewsItem) (upsert.Result, error)
}

// Publisher публикует анонс новой записи. Ошибки он обрабатывает сам.
type Publisher interface {
	Publish(ctx context.Context, share content.Share) bool
}

// Formatter готовит тексты публикаций.
type Formatter interface {
	ReleaseShare(rel content.Release, key string) content.Share
	NewsShare(title, key string) content.Share
}

// RunnerDeps перечисляет зависимости запусков.
// Generator и Publisher необязательны: без генератора используются
// шаблонные тексты, без публикатора анонсы не отправляются.
type RunnerDeps struct {
	Releases  ReleaseSource
	Collector NewsCollector
	Filter    NewsFilter
	Generator Generator
	Upserter  Upserter
	Publisher Publisher
	Formatter Formatter
	Pipeline  config.Pipeline
	Clock     Clock
	Logger    *slog.Logger
}

// Runner выполняет пакетные запуски: релизы SDK и новости из лент.
type Runner struct {
	releases  ReleaseSource
	collector NewsCollector
	filter    NewsFilter
	generator Generator
	upserter  Upserter
	publisher Publisher
	formatter Formatter
	cfg       config.Pipeline
	clock     Clock
	logger    *slog.Logger
}

// NewRunner создаёт новый экземпляр.
func NewRunner(deps RunnerDeps) *Runner {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		releases:  deps.Releases,
		collector: deps.Collector,
		filter:    deps.Filter,
		generator: deps.Generator,
		upserter:  deps.Upserter,
		publisher: deps.Publisher,
		formatter: deps.Formatter,
		cfg:       deps.Pipeline,
		clock:     clock,
		logger:    logger,
	}
}

// ItemStatus - итог обработки одного элемента.
type ItemStatus string

const (
	StatusCreated ItemStatus = "created"
	StatusUpdated ItemStatus = "updated"
	StatusSkipped ItemStatus = "skipped"
	StatusFailed  ItemStatus = "failed"
)

// ItemResult описывает обработку одного элемента пакета.
type ItemResult struct {
	Title  string     `json:"title"`
	Key    string     `json:"key,omitempty"`
	ID     string     `json:"id,omitempty"`
	Status ItemStatus `json:"status"`
	Shared bool       `json:"shared,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Report - сводка одного запуска.
type Report struct {
	Kind       string        `json:"kind"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Candidates int           `json:"candidates"`
	Processed  int           `json:"processed"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Shared     int           `json:"shared"`
	Items      []ItemResult  `json:"items"`
}

func (rep *Report) add(item ItemResult) {
	rep.Items = append(rep.Items, item)
	switch item.Status {
	case StatusCreated:
		rep.Processed++
		rep.Created++
	case StatusUpdated:
		rep.Processed++
		rep.Updated++
	case StatusSkipped:
		rep.Skipped++
	case StatusFailed:
		rep.Failed++
	}
	if item.Shared {
		rep.Shared++
	}
}

// canShare решает, публиковать ли анонс: только для новых записей
// и не больше MaxLinkedInPosts за запуск.
func (r *Runner) canShare(rep *Report, wasUpdate bool) bool {
	if r.publisher == nil || wasUpdate {
		return false
	}
	return r.cfg.MaxLinkedInPosts <= 0 || rep.Shared < r.cfg.MaxLinkedInPosts
}

func (r *Runner) finish(rep *Report) {
	rep.Duration = r.clock().Sub(rep.StartedAt)
	r.logger.Info("run finished",
		"kind", rep.Kind,
		"processed", rep.Processed,
		"created", rep.Created,
		"updated", rep.Updated,
		"skipped", rep.Skipped,
		"failed", rep.Failed,
		"shared", rep.Shared,
	)
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
