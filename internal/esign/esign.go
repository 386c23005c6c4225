package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/replypilot/internal/logging"
)

// Dispatcher sends the service agreement for signature.
type Dispatcher interface {
	SendAgreement(ctx context.Context, req AgreementRequest) (*AgreementResult, error)
}

// AgreementRequest identifies the recipient of the agreement envelope.
type AgreementRequest struct {
	ThreadID       string `json:"thread_id"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	CompanyName    string `json:"company_name"`
}

// AgreementResult is the e-sign provider's acknowledgement.
type AgreementResult struct {
	EnvelopeID string `json:"envelope_id"`
	Status     string `json:"status"`
}

// Client talks to the e-signature provider's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	templateID string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, templateID string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		templateID: templateID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendAgreement creates a signature envelope from the configured template
// and emails it to the recipient.
func (c *Client) SendAgreement(ctx context.Context, req AgreementRequest) (*AgreementResult, error) {
	payload := map[string]interface{}{
		"template_id":     c.templateID,
		"recipient_email": req.RecipientEmail,
		"recipient_name":  req.RecipientName,
		"company_name":    req.CompanyName,
		"reference":       req.ThreadID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/envelopes", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("envelope request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("envelope creation failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result AgreementResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse envelope response: %w", err)
	}

	if logger := logging.GetCurrentLogger(); logger != nil {
		logger.LogAction("send_agreement", fmt.Sprintf("to=%s envelope=%s", req.RecipientEmail, result.EnvelopeID))
	}

	return &result, nil
}
