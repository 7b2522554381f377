package gemini

import (
	"fmt"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/formatter"
)

func releaseArticlePrompt(rel content.Release) string {
	return fmt.Sprintf(`Du är en teknisk skribent som skriver på svenska för utvecklare.

Skriv en kort nyhetsartikel om följande release:
Leverantör: %s
Namn: %s
Version: %s
Publicerad: %s
Länk: %s
Releaseanteckningar:
%s

Svara ENDAST med giltig JSON utan markdown:
{
  "title": "rubrik, högst 90 tecken",
  "introduction": "en ingress på 1-2 meningar",
  "content": "2-4 stycken brödtext, separerade med tomrad",
  "excerpt": "en sammanfattning på högst 280 tecken"
}`,
		rel.Provider, rel.Name, rel.Version, rel.PublishedAt.Format("2006-01-02"), rel.URL, rel.Summary)
}

func tutorialPrompt(rel content.Release) string {
	return fmt.Sprintf(`Du är en erfaren utvecklare som skriver praktiska guider på svenska.

Skriv en tutorial om hur man kommer igång med denna release:
Leverantör: %s
Namn: %s
Version: %s
npm-paket: %s
Länk: %s
Releaseanteckningar:
%s

Svara ENDAST med giltig JSON utan markdown:
{
  "title": "titel",
  "introduction": "inledning",
  "whats_new": "vad är nytt",
  "improvements": ["förbättring 1", "förbättring 2"],
  "installation": "installationskommando",
  "code_examples": [{"title": "rubrik", "description": "beskrivning", "code": "kod", "language": "typescript"}],
  "community_reviews": "hur communityn har tagit emot releasen",
  "resources": [{"title": "namn", "url": "https://..."}]
}`,
		rel.Provider, rel.Name, rel.Version, formatter.PackageName(rel.Provider), rel.URL, rel.Summary)
}

func newsPrompt(item content.FeedItem) string {
	text := item.Snippet
	if text == "" {
		text = item.Content
	}
	return fmt.Sprintf(`Du är en AI-nyhetsredaktör som skriver på svenska.

Bedöm om nyheten handlar om AI-modeller, AI-verktyg för utvecklare eller
AI-branschen. Nyheter om bild- eller videogenerering ska INTE tas med.
Om nyheten inte är relevant, svara endast med ordet SKIP.

Annars svara ENDAST med giltig JSON utan markdown:
{
  "title": "svensk rubrik",
  "summary": "sammanfattning på högst 280 tecken",
  "content": "2-3 stycken, separerade med tomrad"
}

Källa: %s
Rubrik: %s
Länk: %s
Text:
%s`,
		item.FeedName, item.Title, item.Link, content.Truncate(text, 4000))
}
