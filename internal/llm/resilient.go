package llm

import (
	"context"
	"time"

	"github.com/replypilot/internal/logging"
	"github.com/replypilot/internal/retry"
)

// Generator is the minimal surface the resilient wrapper needs from an LLM
// client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ResilientClient wraps a Generator with retry logic and timeout handling.
type ResilientClient struct {
	client      Generator
	retryConfig retry.Config
}

// NewResilientClient creates a resilient wrapper around client.
func NewResilientClient(client Generator, config retry.Config) *ResilientClient {
	return &ResilientClient{client: client, retryConfig: config}
}

// Request is one resilient generation request.
type Request struct {
	Prompt  string
	Timeout time.Duration
}

// Response carries the raw model output plus resiliency metadata.
type Response struct {
	Raw           string
	Success       bool
	AttemptsMade  int
	TotalDuration time.Duration
	RetryReasons  []string
	Err           error
}

// Generate runs the request with retries and an optional timeout. The last
// error is surfaced in Response.Err rather than a bare error return so
// callers can log attempt counts alongside the failure.
func (rc *ResilientClient) Generate(ctx context.Context, req Request) Response {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var raw string
	result := retry.WithBackoffAndReason(ctx, rc.retryConfig, func() (error, string) {
		out, err := rc.client.Generate(ctx, req.Prompt)
		if err != nil {
			return err, err.Error()
		}
		raw = out
		return nil, ""
	}, logging.GetCurrentLogger())

	return Response{
		Raw:           raw,
		Success:       result.Success,
		AttemptsMade:  result.Attempts,
		TotalDuration: result.TotalDuration,
		RetryReasons:  result.RetryReasons,
		Err:           result.LastError,
	}
}
