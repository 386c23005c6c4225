package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Alert is an operator notification about a reply that needs a human.
type Alert struct {
	ThreadID  string    `json:"thread_id"`
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	Template  string    `json:"template"`
	Reasons   []string  `json:"reasons"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink delivers operator alerts.
type Sink interface {
	Notify(ctx context.Context, alert Alert) error
}

// WebhookSink posts alerts to a chat/ops webhook URL.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url: url,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *WebhookSink) Notify(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("alert post failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert post returned status %d", resp.StatusCode)
	}

	log.Debug().
		Str("thread_id", alert.ThreadID).
		Str("template", alert.Template).
		Msg("Operator alert delivered")
	return nil
}

// NopSink drops alerts. Used when no webhook URL is configured.
type NopSink struct{}

func (NopSink) Notify(ctx context.Context, alert Alert) error {
	log.Debug().Str("thread_id", alert.ThreadID).Msg("Alert sink not configured, dropping alert")
	return nil
}
