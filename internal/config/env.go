package config

import (
	"fmt"
	"os"
	"strings"
)

// EnvConfig содержит токены и другие переменные окружения.
type EnvConfig struct {
	GeminiAPIKey   string
	SkipGemini     bool // Не обращаться к Gemini, использовать шаблонный текст
	LinkedInToken  string
	LinkedInOrgURN string
	GitHubToken    string
	PublicBaseURL  string
	RSSFeeds       []string // Переопределение feeds из RSS_FEEDS (через запятую)
	StoreDSN       string
}

// LoadEnvConfig читает переменные окружения процесса.
func LoadEnvConfig() *EnvConfig {
	return loadEnv(os.Getenv)
}

func loadEnv(getenv func(string) string) *EnvConfig {
	var feeds []string
	for _, u := range strings.Split(getenv("RSS_FEEDS"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			feeds = append(feeds, u)
		}
	}

	return &EnvConfig{
		GeminiAPIKey:   getenv("GEMINI_API_KEY"),
		SkipGemini:     getenv("SKIP_GEMINI") == "1",
		LinkedInToken:  getenv("LINKEDIN_ACCESS_TOKEN"),
		LinkedInOrgURN: getenv("LINKEDIN_ORG_URN"),
		GitHubToken:    getenv("GITHUB_TOKEN"),
		PublicBaseURL:  strings.TrimRight(getenv("PUBLIC_BASE_URL"), "/"),
		RSSFeeds:       feeds,
		StoreDSN:       getenv("STORE_DSN"),
	}
}

// RequireGemini возвращает ошибку, если генерация нужна, а ключа нет.
func (e *EnvConfig) RequireGemini() error {
	if !e.SkipGemini && e.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required (or set SKIP_GEMINI=1)")
	}
	return nil
}
