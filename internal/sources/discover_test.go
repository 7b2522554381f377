package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maine/ai_news_bot/internal/logger"
)

const testPage = `<!doctype html>
<html><head>
  <link rel="alternate" type="application/rss+xml" title="Blog" href="/blog/rss.xml">
  <link rel="stylesheet" href="/style.css">
</head><body>
  <a href="#top">top</a>
  <a href="/feed/">Feed</a>
  <a href="/not-a-feed.xml">broken</a>
  <a href="mailto:rss@example.com">RSS by mail</a>
  <a href="/about">About</a>
</body></html>`

func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, testPage)
	})
	mux.HandleFunc("/blog/rss.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testRSS)
	})
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>Atom News</title></feed>`)
	})
	mux.HandleFunc("/not-a-feed.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>nope</body></html>")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscoverer_Discover(t *testing.T) {
	srv := newDiscoveryServer(t)
	d := NewDiscoverer(srv.Client(), logger.Discard())

	feeds, err := d.Discover(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("Discover() = %+v, want 2 feeds", feeds)
	}
	if feeds[0].URL != srv.URL+"/blog/rss.xml" || feeds[0].Name != "Test" || feeds[0].ID != "test" {
		t.Errorf("feeds[0] = %+v", feeds[0])
	}
	if feeds[1].Name != "Atom News" || feeds[1].ID != "atom-news" {
		t.Errorf("feeds[1] = %+v", feeds[1])
	}
}

func TestDiscoverer_DirectFeed(t *testing.T) {
	srv := newDiscoveryServer(t)
	d := NewDiscoverer(srv.Client(), logger.Discard())

	feeds, err := d.Discover(context.Background(), srv.URL+"/blog/rss.xml")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(feeds) != 1 || feeds[0].URL != srv.URL+"/blog/rss.xml" {
		t.Errorf("Discover() = %+v", feeds)
	}
}

func TestDiscoverer_Unreachable(t *testing.T) {
	srv := newDiscoveryServer(t)
	d := NewDiscoverer(srv.Client(), logger.Discard())

	if _, err := d.Discover(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("Discover() error = nil for 404 page")
	}
}

func TestIsFeedURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/rss", true},
		{"https://example.com/blog/feed/", true},
		{"https://example.com/atom.xml", true},
		{"https://example.com/news.rss", true},
		{"https://example.com/about", false},
	}
	for _, tt := range tests {
		if got := isFeedURL(tt.url); got != tt.want {
			t.Errorf("isFeedURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
