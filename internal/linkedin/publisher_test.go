package linkedin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/logger"
)

// mockLinkedInClient - мок для тестирования Publisher
type mockLinkedInClient struct {
	shareFunc func(ctx context.Context, share content.Share) (string, error)
	calls     int
}

func (m *mockLinkedInClient) Share(ctx context.Context, share content.Share) (string, error) {
	m.calls++
	if m.shareFunc != nil {
		return m.shareFunc(ctx, share)
	}
	return "urn:li:share:1", nil
}

func newTestPublisher(client LinkedInClient) *Publisher {
	p := NewPublisher(client, "token", "urn:li:organization:42", logger.Discard())
	p.policy.Sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

func TestConfigured(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		urn    string
		expect bool
	}{
		{"valid", "AQX-token", "urn:li:organization:42", true},
		{"empty token", "", "urn:li:organization:42", false},
		{"empty urn", "token", " ", false},
		{"placeholder token", "placeholder", "urn:li:organization:42", false},
		{"placeholder urn", "token", "urn:li:organization:0", false},
		{"example id", "token", "urn:li:organization:123456789", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Configured(tt.token, tt.urn); got != tt.expect {
				t.Errorf("Configured() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestPublisher_Disabled(t *testing.T) {
	client := &mockLinkedInClient{}
	p := NewPublisher(client, "placeholder", "urn:li:organization:0", logger.Discard())

	if p.Enabled() {
		t.Fatal("Enabled() = true for placeholder credentials")
	}
	if p.Publish(context.Background(), content.Share{Text: "x"}) {
		t.Error("Publish() = true while disabled")
	}
	if client.calls != 0 {
		t.Errorf("client called %d times while disabled", client.calls)
	}
}

func TestPublisher_Publish(t *testing.T) {
	tests := []struct {
		name      string
		shareFunc func(ctx context.Context, share content.Share) (string, error)
		want      bool
		wantCalls int
	}{
		{
			name:      "success",
			want:      true,
			wantCalls: 1,
		},
		{
			name: "retry on server error",
			shareFunc: func() func(context.Context, content.Share) (string, error) {
				n := 0
				return func(context.Context, content.Share) (string, error) {
					n++
					if n < 3 {
						return "", &StatusError{Code: 503}
					}
					return "urn:li:share:2", nil
				}
			}(),
			want:      true,
			wantCalls: 3,
		},
		{
			name: "network errors exhaust attempts",
			shareFunc: func(context.Context, content.Share) (string, error) {
				return "", errors.New("connection reset")
			},
			want:      false,
			wantCalls: retryAttempts,
		},
		{
			name: "unauthorized is not retried",
			shareFunc: func(context.Context, content.Share) (string, error) {
				return "", &StatusError{Code: 401, Message: "Invalid access token"}
			},
			want:      false,
			wantCalls: 1,
		},
		{
			name: "rate limited is retried",
			shareFunc: func(context.Context, content.Share) (string, error) {
				return "", &StatusError{Code: 429}
			},
			want:      false,
			wantCalls: retryAttempts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockLinkedInClient{shareFunc: tt.shareFunc}
			p := newTestPublisher(client)

			if got := p.Publish(context.Background(), content.Share{Text: "hej", Link: "https://x"}); got != tt.want {
				t.Errorf("Publish() = %v, want %v", got, tt.want)
			}
			if client.calls != tt.wantCalls {
				t.Errorf("client calls = %d, want %d", client.calls, tt.wantCalls)
			}
		})
	}
}
