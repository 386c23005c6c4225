package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/replypilot/pkg/models"
)

// InboundEmailEvent represents the structure of email provider webhook
// payloads for reply events.
type InboundEmailEvent struct {
	EventType     string               `json:"event_type"`
	Message       models.Message       `json:"message"`
	ThreadHistory []models.ThreadEntry `json:"thread_history,omitempty"`
}

// secretHeader looks up the shared-secret header with case-insensitive key
// matching, since some providers send x-webhook-secret uncanonicalized.
func secretHeader(headers http.Header, key string) string {
	keyLower := strings.ToLower(key)
	for k, v := range headers {
		if strings.ToLower(k) == keyLower && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// EmailReplyWebhookHandler handles incoming email reply events
func (s *Server) EmailReplyWebhookHandler(c echo.Context) error {
	// Verify the shared secret before touching the payload
	secret := secretHeader(c.Request().Header, "X-Webhook-Secret")
	if s.config.Server.WebhookSecret == "" || secret != s.config.Server.WebhookSecret {
		log.Printf("[INFO] Rejected webhook delivery: bad or missing secret")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid webhook secret",
		})
	}

	// Parse the webhook payload
	var event InboundEmailEvent
	if err := c.Bind(&event); err != nil {
		log.Printf("[ERROR] Failed to parse email webhook payload: %v", err)
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid webhook payload",
		})
	}

	if event.Message.MessageID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "message_id is required",
		})
	}

	log.Printf("[INFO] Received email webhook: event_type=%s, message_id=%s, thread_id=%s",
		event.EventType, event.Message.MessageID, event.Message.ThreadID)

	// Process asynchronously; per-thread ordering is enforced by the
	// conversation store's thread lock, not by the HTTP layer.
	go func() {
		if err := s.orchestrator.ProcessDelivery(context.Background(), &event.Message, event.ThreadHistory); err != nil {
			log.Printf("[ERROR] Delivery processing failed for message %s: %v", event.Message.MessageID, err)
		}
	}()

	return c.JSON(http.StatusOK, map[string]string{
		"status": "received",
	})
}
