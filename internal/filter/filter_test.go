package filter

import (
	"context"
	"testing"

	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/content"
)

func TestFilter_Apply(t *testing.T) {
	f := New(config.DefaultExcludeKeywords)

	tests := []struct {
		name  string
		items []content.FeedItem
		want  int
	}{
		{
			name:  "empty input",
			items: []content.FeedItem{},
			want:  0,
		},
		{
			name: "drop items without title or link",
			items: []content.FeedItem{
				{Title: "", Link: "https://example.com/1"},
				{Title: "No link", Link: " "},
				{Title: "Complete", Link: "https://example.com/2"},
			},
			want: 1,
		},
		{
			name: "exclude image generation by title",
			items: []content.FeedItem{
				{Title: "Midjourney v7 is here", Link: "https://example.com/1"},
				{Title: "New function calling API", Link: "https://example.com/2"},
			},
			want: 1,
		},
		{
			name: "exclude by snippet and content",
			items: []content.FeedItem{
				{Title: "Weekly roundup", Link: "https://example.com/1", Snippet: "All about Text-To-Video models"},
				{Title: "Another roundup", Link: "https://example.com/2", Content: "<p>Stable Diffusion 4</p>"},
				{Title: "SDK release", Link: "https://example.com/3", Snippet: "Streaming responses"},
			},
			want: 1,
		},
		{
			name: "filter duplicates by URL",
			items: []content.FeedItem{
				{Title: "News", Link: "https://example.com/same"},
				{Title: "Same news", Link: "HTTPS://example.com/same/"},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Apply(context.Background(), tt.items)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Apply() len = %d, want %d (%+v)", len(got), tt.want, got)
			}
		})
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	f := New(nil)
	items := []content.FeedItem{
		{Title: "B", Link: "https://example.com/b"},
		{Title: "A", Link: "https://example.com/a"},
	}
	got, err := f.Apply(context.Background(), items)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(got) != 2 || got[0].Title != "B" || got[1].Title != "A" {
		t.Errorf("Apply() changed order: %+v", got)
	}
}

func TestNew_NormalisesKeywords(t *testing.T) {
	f := New([]string{"  SORA ", "", "Paint"})
	if len(f.excludeKeywords) != 2 {
		t.Fatalf("keywords = %v", f.excludeKeywords)
	}
	if !f.Excluded(content.FeedItem{Title: "sora update"}) {
		t.Errorf("expected case-insensitive match")
	}
}
