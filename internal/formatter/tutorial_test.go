package formatter

import (
	"strings"
	"testing"
)

func TestTutorialHTML(t *testing.T) {
	s := TutorialSections{
		Title:        "Streaming <nu>",
		Introduction: "Intro",
		WhatsNew:     "New stuff",
		Improvements: []string{"Faster", "Safer"},
		Installation: "npm i openai",
		CodeExamples: []CodeExample{
			{Title: "Basic", Description: "Call it", Code: "const x = a < b;", Language: "ts"},
		},
		Resources: []Resource{{Title: "Docs", URL: "https://docs"}},
	}

	got := TutorialHTML(s)

	wantParts := []string{
		"<h2>Streaming &lt;nu&gt;</h2>",
		"<h3>Vad är nytt?</h3>",
		"<ul><li>Faster</li><li>Safer</li></ul>",
		"<h4>Exempel 1: Basic</h4>",
		`<pre><code class="language-ts">const x = a &lt; b;</code></pre>`,
		`<li><a href="https://docs" rel="noopener" target="_blank">Docs</a></li>`,
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("TutorialHTML() missing %q:\n%s", part, got)
		}
	}
	if strings.Contains(got, "Vad säger communityn?") {
		t.Errorf("empty community section must be skipped")
	}
}

func TestTutorialSections_WithReleaseLink(t *testing.T) {
	s := TutorialSections{Resources: []Resource{{Title: "Docs", URL: "https://docs"}}}

	added := s.WithReleaseLink("https://release")
	if len(added.Resources) != 2 || added.Resources[1].Title != "Release notes" {
		t.Errorf("release link not added: %+v", added.Resources)
	}
	if len(s.Resources) != 1 {
		t.Errorf("original sections mutated: %+v", s.Resources)
	}

	same := added.WithReleaseLink("https://release")
	if len(same.Resources) != 2 {
		t.Errorf("duplicate release link added: %+v", same.Resources)
	}
}
