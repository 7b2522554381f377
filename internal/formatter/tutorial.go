package formatter

import (
	"fmt"
	"html"
	"strings"
)

// CodeExample - пример кода в туториале.
type CodeExample struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

// Resource - ссылка в разделе ресурсов.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TutorialSections - структурированный туториал, который возвращает модель.
type TutorialSections struct {
	Title            string        `json:"title"`
	Introduction     string        `json:"introduction"`
	WhatsNew         string        `json:"whats_new"`
	Improvements     []string      `json:"improvements"`
	Installation     string        `json:"installation"`
	CodeExamples     []CodeExample `json:"code_examples"`
	CommunityReviews string        `json:"community_reviews,omitempty"`
	Resources        []Resource    `json:"resources"`
}

// WithReleaseLink добавляет ссылку на релиз в ресурсы, если её там ещё нет.
func (s TutorialSections) WithReleaseLink(url string) TutorialSections {
	if url == "" {
		return s
	}
	for _, r := range s.Resources {
		if r.URL == url {
			return s
		}
	}
	s.Resources = append(append([]Resource(nil), s.Resources...), Resource{Title: "Release notes", URL: url})
	return s
}

// TutorialHTML рендерит туториал в HTML. Пустые разделы пропускаются.
func TutorialHTML(s TutorialSections) string {
	esc := html.EscapeString
	var sections []string

	sections = append(sections, "<h2>"+esc(s.Title)+"</h2>")
	if s.Introduction != "" {
		sections = append(sections, "<p>"+esc(s.Introduction)+"</p>")
	}
	if s.WhatsNew != "" {
		sections = append(sections, "<h3>Vad är nytt?</h3>", "<p>"+esc(s.WhatsNew)+"</p>")
	}

	if len(s.Improvements) > 0 {
		var items strings.Builder
		for _, imp := range s.Improvements {
			items.WriteString("<li>" + esc(imp) + "</li>")
		}
		sections = append(sections, "<h3>Förbättringar</h3>", "<ul>"+items.String()+"</ul>")
	}

	if s.Installation != "" {
		sections = append(sections, "<h3>Installation</h3>", "<p>"+esc(s.Installation)+"</p>")
	}

	if len(s.CodeExamples) > 0 {
		sections = append(sections, "<h3>Kodexempel</h3>")
		for i, ex := range s.CodeExamples {
			lang := ex.Language
			if lang == "" {
				lang = "typescript"
			}
			sections = append(sections,
				fmt.Sprintf("<h4>Exempel %d: %s</h4>", i+1, esc(ex.Title)),
				"<p>"+esc(ex.Description)+"</p>",
				fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, esc(lang), esc(ex.Code)),
			)
		}
	}

	if s.CommunityReviews != "" {
		sections = append(sections, "<h3>Vad säger communityn?</h3>", "<p>"+esc(s.CommunityReviews)+"</p>")
	}

	if len(s.Resources) > 0 {
		var items strings.Builder
		for _, r := range s.Resources {
			fmt.Fprintf(&items, `<li><a href="%s" rel="noopener" target="_blank">%s</a></li>`, esc(r.URL), esc(r.Title))
		}
		sections = append(sections, "<h3>Resurser och länkar</h3>", "<ul>"+items.String()+"</ul>")
	}

	return strings.Join(sections, "\n")
}
