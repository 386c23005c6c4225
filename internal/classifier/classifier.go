// Package classifier calls the external LLM to label an inbound reply with a
// template, a signal list and an extraction bag. The classifier is a black
// box to the decision engine: its output is advisory and the deterministic
// normalizer/engine layers gate everything it says.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/replypilot/internal/llm"
	"github.com/replypilot/internal/logging"
	"github.com/replypilot/internal/retry"
	"github.com/replypilot/pkg/models"
)

// ErrClassification marks failures of the external classification call so
// the orchestrator can distinguish them from decision blocks.
var ErrClassification = errors.New("classification failed")

// Classifier labels inbound replies using an LLM backend.
type Classifier struct {
	resilient *llm.ResilientClient
	timeout   time.Duration
}

// New creates a classifier around the given LLM backend.
func New(backend llm.Generator, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{
		resilient: llm.NewResilientClient(backend, retry.ClassifierConfig()),
		timeout:   timeout,
	}
}

// classifierResponse is the JSON shape the prompt asks the model for.
type classifierResponse struct {
	Template    string            `json:"template"`
	Signals     []string          `json:"signals"`
	Extractions map[string]string `json:"extractions"`
}

// Classify labels one message. Returns ErrClassification-wrapped errors on
// any failure; it never guesses a label when the model call breaks.
func (c *Classifier) Classify(ctx context.Context, msg *models.Message) (*models.Classification, error) {
	prompt := BuildPrompt(msg)

	resp := c.resilient.Generate(ctx, llm.Request{Prompt: prompt, Timeout: c.timeout})
	if !resp.Success {
		log.Error().
			Err(resp.Err).
			Int("attempts", resp.AttemptsMade).
			Str("message_id", msg.MessageID).
			Msg("Classification call failed")
		return nil, fmt.Errorf("%w: %v (after %d attempts)", ErrClassification, resp.Err, resp.AttemptsMade)
	}

	if dl := logging.GetCurrentLogger(); dl != nil {
		dl.LogClassification(prompt, resp.Raw)
	}

	var parsed classifierResponse
	if _, err := llm.ParseResponse(resp.Raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrClassification, err)
	}
	if parsed.Template == "" {
		return nil, fmt.Errorf("%w: response missing template label", ErrClassification)
	}

	return &models.Classification{
		Template:    parsed.Template,
		Signals:     parsed.Signals,
		Extractions: parsed.Extractions,
	}, nil
}
