package linkedin

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/retry"
)

const (
	// retryAttempts - количество попыток публикации при ошибке
	retryAttempts = 3
	// retryDelay - задержка перед второй попыткой, дальше удваивается
	retryDelay = 2 * time.Second
)

// Значения-заглушки из шаблонов .env, при которых публикация выключена.
var placeholders = []string{"placeholder", "urn:li:organization:0", "123456789"}

// Publisher реализует app.Publisher. Ошибки публикации логируются
// и никогда не проваливают обработку записи.
type Publisher struct {
	client  LinkedInClient
	enabled bool
	policy  retry.Policy
	logger  *slog.Logger
}

// NewPublisher создаёт публикатора. Если токен или URN не заданы или
// являются заглушками, публикатор выключен и Publish ничего не делает.
func NewPublisher(client LinkedInClient, token, orgURN string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	enabled := client != nil && Configured(token, orgURN)
	if !enabled {
		logger.Info("linkedin publishing disabled: credentials missing or placeholders")
	}
	return &Publisher{
		client:  client,
		enabled: enabled,
		policy:  retry.Policy{MaxAttempts: retryAttempts, BaseDelay: retryDelay},
		logger:  logger,
	}
}

// Configured проверяет, что токен и URN заданы и не являются заглушками.
func Configured(token, orgURN string) bool {
	token, orgURN = strings.TrimSpace(token), strings.TrimSpace(orgURN)
	if token == "" || orgURN == "" {
		return false
	}
	for _, p := range placeholders {
		if strings.Contains(token, p) || strings.Contains(orgURN, p) {
			return false
		}
	}
	return true
}

// Enabled сообщает, будут ли публикации отправляться.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Publish отправляет публикацию. Возвращает true, если пост опубликован.
func (p *Publisher) Publish(ctx context.Context, share content.Share) bool {
	if !p.enabled {
		return false
	}

	var permanent error
	urn, err := retry.Value(ctx, p.policy, func(ctx context.Context) (string, error) {
		urn, err := p.client.Share(ctx, share)
		if err != nil && !isRetryableError(err) {
			// Повтор не поможет: выходим из цикла
			permanent = err
			return "", nil
		}
		return urn, err
	})
	if permanent != nil {
		err = permanent
	}
	if err != nil {
		p.logger.Warn("linkedin share failed", "link", share.Link, "error", err)
		return false
	}

	p.logger.Info("linkedin share published", "link", share.Link, "urn", urn)
	return true
}

// isRetryableError определяет, можно ли повторить публикацию при данной ошибке.
// Ошибки 4xx (кроме 429) означают проблему с токеном или телом запроса.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// Сетевые ошибки считаем временными
	return true
}
