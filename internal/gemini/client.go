package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/maine/ai_news_bot/internal/config"
)

// GeminiClient определяет интерфейс для работы с Gemini API.
// Это позволяет легко создавать моки для тестирования.
type GeminiClient interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// ErrMissingAPIKey возвращается, если ключ API не задан.
var ErrMissingAPIKey = errors.New("gemini API key is required")

// Задержки между попытками для разных классов ошибок.
const (
	maxRetries              = 5
	baseDelay               = 12 * time.Second
	maxBaseDelay            = 60 * time.Second
	rateLimitDelay          = 1 * time.Minute
	serviceUnavailableDelay = 5 * time.Minute
)

// Client инкапсулирует работу с Gemini API через официальный SDK.
type Client struct {
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *slog.Logger
}

// Убеждаемся, что Client реализует интерфейс GeminiClient.
var _ GeminiClient = (*Client)(nil)

// NewClient создаёт новый клиент для работы с Gemini API.
// Запросы не отправляются чаще, чем раз в cfg.MinInterval.
func NewClient(ctx context.Context, apiKey string, cfg config.Gemini, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client:  client,
		limiter: newLimiter(cfg.MinInterval),
		timeout: cfg.Timeout,
		sleep:   sleepContext,
		logger:  logger,
	}, nil
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// GenerateText отправляет запрос к Gemini API и возвращает текстовый ответ.
// Ошибки лимитов RPM/TPM и временные ошибки (500, 502, 503, 504) повторяются,
// исчерпанная дневная квота возвращается сразу.
func (c *Client) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	var lastErr error
	var delay time.Duration
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Info("retrying gemini request", "attempt", attempt+1, "max", maxRetries, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		text, err := c.generateOnce(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		next, retryable, err := classify(err, attempt)
		if !retryable {
			return "", err
		}
		c.logger.Warn("gemini request failed", "attempt", attempt+1, "error", lastErr)
		delay = next
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) generateOnce(ctx context.Context, model, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limiter: %w", err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text, err := result.Text()
	if err != nil {
		return "", fmt.Errorf("get text from result: %w", err)
	}
	return text, nil
}

// classify решает, повторять ли запрос после ошибки и с какой задержкой.
func classify(err error, attempt int) (time.Duration, bool, error) {
	errStr := err.Error()

	switch {
	case isRPDQuotaError(errStr):
		return 0, false, fmt.Errorf("gemini API RPD quota exceeded (daily limit reached): %w", err)
	case isRateLimitError(errStr):
		return rateLimitDelay, true, nil
	case isServiceUnavailableError(errStr):
		return serviceUnavailableDelay, true, nil
	case isTemporaryError(errStr):
		delay := baseDelay * time.Duration(attempt+1)
		if delay > maxBaseDelay {
			delay = maxBaseDelay
		}
		return delay, true, nil
	case isQuotaExceededError(errStr):
		return 0, false, fmt.Errorf("gemini API quota exceeded: %w", err)
	default:
		return 0, false, fmt.Errorf("generate content: %w", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRPDQuotaError проверяет, является ли ошибка 429 связанной с RPD (дневной лимит).
// Признаки: "limit: 20" или метрика "generate_content_free_tier_requests".
func isRPDQuotaError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	if !strings.Contains(errLower, "429") {
		return false
	}
	return strings.Contains(errLower, "limit: 20") ||
		strings.Contains(errLower, "generate_content_free_tier_requests")
}

// isRateLimitError проверяет, является ли ошибка лимитом RPM/TPM (429, но не RPD).
func isRateLimitError(errStr string) bool {
	if isRPDQuotaError(errStr) {
		return false
	}
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "429") ||
		strings.Contains(errLower, "too many requests") ||
		strings.Contains(errLower, "resource exhausted")
}

// isServiceUnavailableError - 503, модель перегружена.
func isServiceUnavailableError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "503") ||
		strings.Contains(errLower, "service unavailable") ||
		strings.Contains(errLower, "overloaded")
}

// isTemporaryError - 500, 502, 504.
func isTemporaryError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "500") ||
		strings.Contains(errLower, "502") ||
		strings.Contains(errLower, "504") ||
		strings.Contains(errLower, "internal server error") ||
		strings.Contains(errLower, "bad gateway") ||
		strings.Contains(errLower, "gateway timeout")
}

func isQuotaExceededError(errStr string) bool {
	errLower := strings.ToLower(errStr)
	return strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "daily limit") ||
		strings.Contains(errLower, "403")
}
