package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/replypilot/internal/logging"
	"github.com/replypilot/pkg/models"
)

// AutoHeader marks outbound messages produced by the responder so later
// thread scans can tell them apart from manual operator replies.
const AutoHeader = "X-ReplyPilot-Auto"

// Sender delivers reply emails into an existing thread.
type Sender interface {
	SendReply(ctx context.Context, req SendRequest) (*SendResult, error)
}

// SendRequest describes one outbound reply.
type SendRequest struct {
	ThreadID string `json:"thread_id"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Template string `json:"template"`
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	MessageID string `json:"message_id"`
	SentAt    time.Time
}

// Client talks to the transactional email provider's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a mail client. ratePerMinute caps outbound sends;
// zero or negative disables the limiter.
func NewClient(baseURL, apiKey, from string, ratePerMinute int) *Client {
	var limiter *rate.Limiter
	if ratePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), ratePerMinute)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
	}
}

type sendPayload struct {
	ThreadID string            `json:"thread_id"`
	From     string            `json:"from"`
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Body     string            `json:"body"`
	Headers  map[string]string `json:"headers"`
}

// SendReply sends one reply into the thread, blocking on the rate
// limiter if the outbound budget is exhausted.
func (c *Client) SendReply(ctx context.Context, req SendRequest) (*SendResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	payload := sendPayload{
		ThreadID: req.ThreadID,
		From:     c.from,
		To:       req.To,
		Subject:  req.Subject,
		Body:     req.Body,
		Headers: map[string]string{
			AutoHeader: "1",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("send failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SendResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse send response: %w", err)
	}
	result.SentAt = time.Now()

	if logger := logging.GetCurrentLogger(); logger != nil {
		logger.LogAction("send_reply", fmt.Sprintf("template=%s to=%s message_id=%s", req.Template, req.To, result.MessageID))
	}

	return &result, nil
}

// ReplySubject derives the reply subject for an inbound message.
func ReplySubject(msg *models.Message) string {
	if msg.Subject == "" {
		return "Re: your reply"
	}
	if len(msg.Subject) >= 4 && (msg.Subject[:4] == "Re: " || msg.Subject[:4] == "RE: ") {
		return msg.Subject
	}
	return "Re: " + msg.Subject
}
