package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/replypilot/pkg/models"
)

type stubBackend struct {
	response string
	err      error
	calls    int
}

func (s *stubBackend) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestClassifyParsesFencedJSON(t *testing.T) {
	backend := &stubBackend{response: "Here you go:\n```json\n" +
		`{"template": "YES_SEND", "signals": ["explicit_yes"], "extractions": {"role": "backend engineer"}}` +
		"\n```"}
	c := New(backend, time.Second)

	got, err := c.Classify(context.Background(), &models.Message{
		MessageID: "m1",
		Body:      "Yes, send it over",
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Template != "YES_SEND" {
		t.Errorf("template = %q", got.Template)
	}
	if len(got.Signals) != 1 || got.Signals[0] != "explicit_yes" {
		t.Errorf("signals = %v", got.Signals)
	}
	if got.Role() != "backend engineer" {
		t.Errorf("role = %q", got.Role())
	}
}

func TestClassifyRepairsTruncatedJSON(t *testing.T) {
	backend := &stubBackend{response: `{"template": "INTERESTED", "signals": [],`}
	c := New(backend, time.Second)

	got, err := c.Classify(context.Background(), &models.Message{MessageID: "m1", Body: "tell me more"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Template != "INTERESTED" {
		t.Errorf("template = %q", got.Template)
	}
}

func TestClassifyMissingTemplateFails(t *testing.T) {
	backend := &stubBackend{response: `{"signals": ["asks_fees"]}`}
	c := New(backend, time.Second)

	_, err := c.Classify(context.Background(), &models.Message{MessageID: "m1"})
	if !errors.Is(err, ErrClassification) {
		t.Fatalf("want ErrClassification, got %v", err)
	}
}

func TestClassifyBackendFailure(t *testing.T) {
	backend := &stubBackend{err: errors.New("invalid api key")}
	c := New(backend, time.Second)

	_, err := c.Classify(context.Background(), &models.Message{MessageID: "m1"})
	if !errors.Is(err, ErrClassification) {
		t.Fatalf("want ErrClassification, got %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("non-retryable failure should fail fast, calls = %d", backend.calls)
	}
}
