package content

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Collection - именованный раздел хранилища с общей схемой записей.
type Collection string

const (
	CollectionPosts     Collection = "posts"
	CollectionNews      Collection = "news"
	CollectionTutorials Collection = "tutorials"
)

// Collections перечисляет все известные коллекции в порядке вывода.
var Collections = []Collection{CollectionPosts, CollectionTutorials, CollectionNews}

// Valid сообщает, известна ли коллекция.
func (c Collection) Valid() bool {
	switch c {
	case CollectionPosts, CollectionNews, CollectionTutorials:
		return true
	default:
		return false
	}
}

// ErrInvalidDocument возвращается при нарушении схемы коллекции.
var ErrInvalidDocument = errors.New("invalid document")

// PostFields - поля, специфичные для постов о релизах.
type PostFields struct {
	Provider string `json:"provider"`
}

// NewsFields - поля, специфичные для новостей из RSS.
type NewsFields struct {
	Source string `json:"source"`
}

// TutorialFields - поля туториала. ParentKey ссылается на ключ поста, но не владеет им.
type TutorialFields struct {
	ParentKey string `json:"parent_key"`
}

// Document - содержимое записи без идентификатора.
// Ровно одно из полей Post/News/Tutorial должно быть заполнено и соответствовать коллекции.
type Document struct {
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Body      string    `json:"body"`
	SourceURL string    `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Post     *PostFields     `json:"post,omitempty"`
	News     *NewsFields     `json:"news,omitempty"`
	Tutorial *TutorialFields `json:"tutorial,omitempty"`
}

// Validate проверяет документ на соответствие схеме коллекции.
func (d Document) Validate(c Collection) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown collection %q", ErrInvalidDocument, c)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidDocument)
	}

	variants := 0
	if d.Post != nil {
		variants++
	}
	if d.News != nil {
		variants++
	}
	if d.Tutorial != nil {
		variants++
	}
	if variants > 1 {
		return fmt.Errorf("%w: more than one collection variant set", ErrInvalidDocument)
	}

	switch c {
	case CollectionPosts:
		if d.Post == nil {
			return fmt.Errorf("%w: posts require post fields", ErrInvalidDocument)
		}
	case CollectionNews:
		if d.News == nil {
			return fmt.Errorf("%w: news require news fields", ErrInvalidDocument)
		}
	case CollectionTutorials:
		if d.Tutorial == nil || d.Tutorial.ParentKey == "" {
			return fmt.Errorf("%w: tutorials require a parent key", ErrInvalidDocument)
		}
	}
	return nil
}

// Record - сохранённый документ вместе с идентификатором хранилища и ключом.
type Record struct {
	ID         string     `json:"id"`
	Collection Collection `json:"collection"`
	Key        string     `json:"key"`
	Document
}

// Release описывает релиз SDK/API у провайдера моделей.
type Release struct {
	Provider    string    `json:"provider"`
	Name        string    `json:"name"`
	Version     string    `json:"version,omitempty"`
	Kind        string    `json:"kind"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary"`
}

// FeedItem - элемент RSS-ленты сразу после получения.
type FeedItem struct {
	FeedID      string    `json:"feed_id"`
	FeedName    string    `json:"feed_name"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Snippet     string    `json:"snippet,omitempty"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Article - сгенерированный текст поста (уже экранированный HTML в Body).
type Article struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Body    string `json:"body"`
}

// Tutorial - сгенерированный туториал к релизу.
type Tutorial struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	SourceURL string `json:"source_url"`
}

// NewsItem - обработанная новость, готовая к сохранению.
type NewsItem struct {
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Body      string `json:"body"`
	SourceURL string `json:"source_url"`
	Source    string `json:"source"`
}

// Truncate обрезает строку до max рун.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Share - публикация в LinkedIn: текст и ссылка на страницу записи.
type Share struct {
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
	Link  string `json:"link,omitempty"`
}
