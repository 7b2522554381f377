package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/maine/ai_news_bot/internal/content"
)

// LinkedInClient определяет интерфейс для публикации в LinkedIn.
// Это позволяет легко создавать моки для тестирования.
type LinkedInClient interface {
	Share(ctx context.Context, share content.Share) (string, error)
}

// Client инкапсулирует работу с LinkedIn UGC Posts API.
type Client struct {
	author string
	apiURL string
	client *http.Client
}

// Убеждаемся, что Client реализует интерфейс LinkedInClient.
var _ LinkedInClient = (*Client)(nil)

// NewClient создаёт клиента. Токен подставляется в каждый запрос
// транспортом oauth2; base может быть nil.
func NewClient(apiURL, token, author string, timeout time.Duration, base *http.Client) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	var transport http.RoundTripper
	if base != nil {
		transport = base.Transport
	}
	return &Client{
		author: author,
		apiURL: apiURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   transport,
			},
		},
	}
}

// Share публикует пост и возвращает его URN из заголовка x-restli-id.
func (c *Client) Share(ctx context.Context, share content.Share) (string, error) {
	data, err := json.Marshal(c.payload(share))
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", statusError(resp)
	}
	return resp.Header.Get("X-Restli-Id"), nil
}

func (c *Client) payload(share content.Share) ugcPost {
	sc := shareContent{
		ShareCommentary:    text{Text: share.Text},
		ShareMediaCategory: "NONE",
	}
	if share.Link != "" {
		m := media{Status: "READY", OriginalURL: share.Link}
		if share.Title != "" {
			m.Title = &text{Text: share.Title}
		}
		sc.ShareMediaCategory = "ARTICLE"
		sc.Media = []media{m}
	}

	return ugcPost{
		Author:          c.author,
		LifecycleState:  "PUBLISHED",
		SpecificContent: specificContent{ShareContent: sc},
		Visibility:      visibility{MemberNetworkVisibility: "PUBLIC"},
	}
}

// StatusError - ответ API с кодом 4xx/5xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("linkedin api status %d", e.Code)
	}
	return fmt.Sprintf("linkedin api status %d: %s", e.Code, e.Message)
}

// Retryable сообщает, имеет ли смысл повторить запрос.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	msg := ""
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
