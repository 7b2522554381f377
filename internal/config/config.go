package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// Root объединяет все конфигурационные блоки.
	Root struct {
		Pipeline  Pipeline   `yaml:"pipeline"`
		Gemini    Gemini     `yaml:"gemini"`
		Store     Store      `yaml:"store"`
		GitHub    GitHub     `yaml:"github"`
		Providers []Provider `yaml:"providers"`
		Feeds     []Feed     `yaml:"feeds"`
		LinkedIn  LinkedIn   `yaml:"linkedin"`
		Log       Log        `yaml:"log"`
		Server    Server     `yaml:"server"`
	}

	// Pipeline описывает лимиты одного запуска.
	Pipeline struct {
		MaxReleasesPerRun int           `yaml:"max_releases_per_run"`
		MaxNewsPerRun     int           `yaml:"max_news_per_run"`
		ItemsPerFeed      int           `yaml:"items_per_feed"`
		MaxLinkedInPosts  int           `yaml:"max_linkedin_posts"`
		PublicBaseURL     string        `yaml:"public_base_url"`
		ExcludeKeywords   []string      `yaml:"exclude_keywords"`
		RetryAttempts     int           `yaml:"retry_attempts"`
		RetryBaseDelay    time.Duration `yaml:"retry_base_delay"`
	}

	// Gemini содержит настройки модели.
	Gemini struct {
		Model       string        `yaml:"model"`
		MinInterval time.Duration `yaml:"min_interval"` // Пауза между запросами (лимит RPM бесплатного тарифа)
		Timeout     time.Duration `yaml:"timeout"`
	}

	// Store выбирает бэкенд хранилища: memory, file, sqlite или postgres.
	Store struct {
		Driver   string `yaml:"driver"`
		Path     string `yaml:"path"`
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`
	}

	// GitHub - параметры API релизов.
	GitHub struct {
		APIURL  string        `yaml:"api_url"`
		PerPage int           `yaml:"per_page"`
		Timeout time.Duration `yaml:"timeout"`
	}

	// Provider - репозиторий SDK, релизы которого превращаются в посты.
	Provider struct {
		ID          string `yaml:"id"`
		Repo        string `yaml:"repo"`
		DefaultName string `yaml:"default_name"`
	}

	// Feed - одна RSS-лента.
	Feed struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	}

	// LinkedIn - адрес API публикаций.
	LinkedIn struct {
		APIURL  string        `yaml:"api_url"`
		Timeout time.Duration `yaml:"timeout"`
	}

	// Log - уровень и необязательный файл лога.
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	}

	// Server - HTTP-триггеры запусков.
	Server struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	}
)

// DefaultProviders повторяет список SDK, за которыми следит пайплайн.
var DefaultProviders = []Provider{
	{ID: "openai", Repo: "openai/openai-node", DefaultName: "OpenAI API update"},
	{ID: "google", Repo: "google-gemini/generative-ai-js", DefaultName: "Gemini API update"},
	{ID: "anthropic", Repo: "anthropics/anthropic-sdk-typescript", DefaultName: "Anthropic SDK update"},
}

// DefaultExcludeKeywords отсекает новости о генерации изображений и видео.
var DefaultExcludeKeywords = []string{
	"dall-e", "dalle", "midjourney", "stable diffusion", "sora",
	"image generation", "bildgenerering", "video generation", "videogenerering",
	"text-to-image", "text-to-video", "image-to-image", "img2img",
	"diffusion model", "paint", "sketch", "art generator", "konstgenerator",
	"visual ai", "computer vision", "image recognition", "bildigenkänning",
}

// LoadRoot читает основной файл конфигурации и заполняет значения по умолчанию.
func LoadRoot(path string) (Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Root{}, fmt.Errorf("read config: %w", err)
	}
	return ParseRoot(data)
}

// ParseRoot разбирает YAML-конфиг из памяти.
func ParseRoot(data []byte) (Root, error) {
	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Root{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Root{}, err
	}
	return cfg, nil
}

// ApplyDefaults заполняет незаданные поля.
func (r *Root) ApplyDefaults() {
	p := &r.Pipeline
	if p.MaxReleasesPerRun <= 0 {
		p.MaxReleasesPerRun = 3
	}
	if p.MaxNewsPerRun <= 0 {
		p.MaxNewsPerRun = 5
	}
	if p.ItemsPerFeed <= 0 {
		p.ItemsPerFeed = 1
	}
	if p.MaxLinkedInPosts <= 0 {
		p.MaxLinkedInPosts = 3
	}
	if p.PublicBaseURL == "" {
		p.PublicBaseURL = "https://ai-arne.se"
	}
	if len(p.ExcludeKeywords) == 0 {
		p.ExcludeKeywords = DefaultExcludeKeywords
	}
	if p.RetryAttempts <= 0 {
		p.RetryAttempts = 3
	}
	if p.RetryBaseDelay <= 0 {
		p.RetryBaseDelay = 500 * time.Millisecond
	}

	if r.Gemini.Model == "" {
		r.Gemini.Model = "gemini-2.0-flash"
	}
	if r.Gemini.MinInterval <= 0 {
		r.Gemini.MinInterval = 4 * time.Second
	}
	if r.Gemini.Timeout <= 0 {
		r.Gemini.Timeout = 60 * time.Second
	}

	if r.Store.Driver == "" {
		r.Store.Driver = "file"
	}
	if r.Store.Path == "" {
		switch r.Store.Driver {
		case "sqlite":
			r.Store.Path = "data/records.db"
		default:
			r.Store.Path = "data/records.json"
		}
	}

	if r.GitHub.APIURL == "" {
		r.GitHub.APIURL = "https://api.github.com"
	}
	if r.GitHub.PerPage <= 0 {
		r.GitHub.PerPage = 5
	}
	if r.GitHub.Timeout <= 0 {
		r.GitHub.Timeout = 15 * time.Second
	}
	if len(r.Providers) == 0 {
		r.Providers = DefaultProviders
	}

	for i := range r.Feeds {
		if r.Feeds[i].Name == "" {
			r.Feeds[i].Name = fmt.Sprintf("RSS Feed %d", i+1)
		}
		if r.Feeds[i].ID == "" {
			r.Feeds[i].ID = fmt.Sprintf("feed-%d", i+1)
		}
	}

	if r.LinkedIn.APIURL == "" {
		r.LinkedIn.APIURL = "https://api.linkedin.com/v2/ugcPosts"
	}
	if r.LinkedIn.Timeout <= 0 {
		r.LinkedIn.Timeout = 15 * time.Second
	}

	if r.Log.Level == "" {
		r.Log.Level = "info"
	}

	if r.Server.Addr == "" {
		r.Server.Addr = ":8080"
	}
	if r.Server.ReadTimeout <= 0 {
		r.Server.ReadTimeout = 10 * time.Second
	}
	if r.Server.WriteTimeout <= 0 {
		// Запуск пайплайна с генерацией может занять минуты
		r.Server.WriteTimeout = 10 * time.Minute
	}
}

// Validate проверяет согласованность конфига.
func (r Root) Validate() error {
	switch r.Store.Driver {
	case "memory", "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", r.Store.Driver)
	}
	for i, p := range r.Providers {
		if p.ID == "" || p.Repo == "" {
			return fmt.Errorf("providers[%d]: id and repo are required", i)
		}
	}
	for i, f := range r.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feeds[%d]: url is required", i)
		}
	}
	return nil
}

// ApplyEnv переносит переопределения из окружения в конфиг.
func (r *Root) ApplyEnv(env *EnvConfig) {
	if env == nil {
		return
	}
	if env.PublicBaseURL != "" {
		r.Pipeline.PublicBaseURL = env.PublicBaseURL
	}
	if len(env.RSSFeeds) > 0 {
		r.Feeds = FeedsFromURLs(env.RSSFeeds)
	}
	if env.StoreDSN != "" {
		r.Store.DSN = env.StoreDSN
	}
}

// FeedsFromURLs строит список лент из адресов; источник называется по порядковому номеру.
func FeedsFromURLs(urls []string) []Feed {
	var feeds []Feed
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		n := len(feeds) + 1
		feeds = append(feeds, Feed{
			ID:   fmt.Sprintf("feed-%d", n),
			Name: fmt.Sprintf("RSS Feed %d", n),
			URL:  u,
		})
	}
	return feeds
}
