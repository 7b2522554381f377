// Package formatter собирает HTML записей и тексты публикаций.
// Весь пользовательский текст экранируется здесь; хранилище получает готовый HTML.
package formatter

import (
	"fmt"
	"html"
	"strings"

	"github.com/maine/ai_news_bot/internal/content"
)

const (
	// linkedInMaxTextLength - лимит shareCommentary в LinkedIn.
	linkedInMaxTextLength = 3000
	// excerptLimit - длина excerpt в рунах.
	excerptLimit = 280
	// ellipsis добавляется при обрезке текста
	ellipsis = "..."
)

// Formatter строит HTML и публикации. baseURL - адрес сайта без завершающего слэша.
type Formatter struct {
	baseURL string
}

// NewFormatter создаёт новый экземпляр форматтера.
func NewFormatter(baseURL string) *Formatter {
	return &Formatter{baseURL: strings.TrimRight(baseURL, "/")}
}

// PostURL возвращает публичный адрес поста.
func (f *Formatter) PostURL(key string) string {
	return f.baseURL + "/post/" + key
}

// NewsURL возвращает публичный адрес новости.
func (f *Formatter) NewsURL(key string) string {
	return f.baseURL + "/news/" + key
}

// ReleaseTitle - заголовок поста без генерации: "[OPENAI] name version".
func ReleaseTitle(rel content.Release) string {
	title := fmt.Sprintf("[%s] %s", strings.ToUpper(rel.Provider), rel.Name)
	if rel.Version != "" {
		title += " " + rel.Version
	}
	return title
}

// ArticleHTML собирает тело поста из заголовка и абзацев.
func ArticleHTML(title string, paragraphs ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<p><strong>%s</strong></p>", html.EscapeString(title))
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		fmt.Fprintf(&sb, "<p>%s</p>", html.EscapeString(p))
	}
	return sb.String()
}

// SourceLink - абзац со ссылкой на первоисточник.
func SourceLink(url string) string {
	u := html.EscapeString(url)
	return fmt.Sprintf(`<p>Källa: <a href="%s" rel="noopener" target="_blank">%s</a></p>`, u, u)
}

// FallbackArticle строит пост о релизе без обращения к модели.
func FallbackArticle(rel content.Release) content.Article {
	title := ReleaseTitle(rel)
	return content.Article{
		Title:   title,
		Excerpt: content.Truncate(rel.Summary, excerptLimit),
		Body:    ArticleHTML(title, rel.Summary) + SourceLink(rel.URL),
	}
}

// FallbackTutorial строит шаблонный туториал к релизу.
func FallbackTutorial(rel content.Release) content.Tutorial {
	title := "Kom igång med " + rel.Name
	if rel.Version != "" {
		title += " " + rel.Version
	}
	u := html.EscapeString(rel.URL)
	body := strings.Join([]string{
		"<h2>" + html.EscapeString(title) + "</h2>",
		"<p>I den här guiden går vi igenom det nya API:et från " + html.EscapeString(rel.Provider) + ".</p>",
		"<h3>Förutsättningar</h3>",
		"<ul><li>Konto hos leverantören</li><li>API-nyckel</li><li>Node.js 22+</li></ul>",
		"<h3>Installation</h3>",
		"<pre><code>npm i " + html.EscapeString(PackageName(rel.Provider)) + "</code></pre>",
		"<h3>Läs mer</h3>",
		`<p><a href="` + u + `" rel="noopener" target="_blank">` + u + "</a></p>",
	}, "\n")
	return content.Tutorial{Title: title, Body: body, SourceURL: rel.URL}
}

// FallbackNews превращает элемент ленты в новость без пересказа моделью.
func FallbackNews(item content.FeedItem) content.NewsItem {
	text := item.Snippet
	if text == "" {
		text = item.Content
	}
	return content.NewsItem{
		Title:     item.Title,
		Excerpt:   content.Truncate(text, excerptLimit),
		Body:      ArticleHTML(item.Title, text) + SourceLink(item.Link),
		SourceURL: item.Link,
		Source:    item.FeedName,
	}
}

// PackageName возвращает npm-пакет SDK провайдера.
func PackageName(provider string) string {
	switch provider {
	case "openai":
		return "openai"
	case "google":
		return "@google/generative-ai"
	case "anthropic":
		return "@anthropic-ai/sdk"
	default:
		return provider + "-sdk"
	}
}

// ReleaseShare готовит публикацию о новом посте.
func (f *Formatter) ReleaseShare(rel content.Release, key string) content.Share {
	url := f.PostURL(key)
	headline := fmt.Sprintf("%s nyhet: %s", strings.ToUpper(rel.Provider), rel.Name)
	if rel.Version != "" {
		headline += " " + rel.Version
	}
	text := strings.Join([]string{headline, "", rel.Summary, "", "Läs mer: " + url}, "\n")
	return content.Share{
		Text:  limitText(text, linkedInMaxTextLength),
		Title: "Nyhet: " + rel.Name,
		Link:  url,
	}
}

// NewsShare готовит публикацию о новой новости.
func (f *Formatter) NewsShare(title, key string) content.Share {
	url := f.NewsURL(key)
	text := strings.Join([]string{"AI-nyhet: " + title, "", "Läs mer: " + url}, "\n")
	return content.Share{
		Text:  limitText(text, linkedInMaxTextLength),
		Title: title,
		Link:  url,
	}
}

// limitText обрезает текст до limit рун, сохраняя последнюю строку (ссылку).
func limitText(text string, limit int) string {
	if len([]rune(text)) <= limit {
		return text
	}
	head, tail := text, ""
	if i := strings.LastIndex(text, "\n"); i >= 0 {
		head, tail = text[:i], text[i:]
	}
	keep := limit - len([]rune(tail)) - len(ellipsis)
	if keep <= 0 {
		return content.Truncate(text, limit)
	}
	return content.Truncate(head, keep) + ellipsis + tail
}
