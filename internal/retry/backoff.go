// Package retry provides exponential backoff with jitter for the outbound
// calls the orchestrator makes (classification, reply send, agreement
// dispatch). The decision core itself never retries anything.
package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/replypilot/internal/logging"
)

// Config configures retry behavior with exponential backoff.
type Config struct {
	MaxRetries int           `json:"max_retries"` // Maximum retry attempts (default: 3)
	BaseDelay  time.Duration `json:"base_delay"`  // Base delay between retries (default: 1s)
	MaxDelay   time.Duration `json:"max_delay"`   // Cap on the delay (default: 30s)
	Multiplier float64       `json:"multiplier"`  // Backoff multiplier (default: 2.0)
	Jitter     bool          `json:"jitter"`      // Random jitter to avoid thundering herd
	LogRetries bool          `json:"log_retries"` // Log each attempt to the delivery log
}

// Result describes what the retry loop did.
type Result struct {
	Attempts      int           `json:"attempts"`
	TotalDuration time.Duration `json:"total_duration"`
	LastError     error         `json:"-"`
	Success       bool          `json:"success"`
	RetryReasons  []string      `json:"retry_reasons"`
}

// DefaultConfig returns a retry configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		LogRetries: true,
	}
}

// ClassifierConfig returns a retry configuration tuned for the external
// classifier: slower base delay and a longer cap, since LLM calls can stall.
func ClassifierConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.5,
		Jitter:     true,
		LogRetries: true,
	}
}

// WithBackoff executes an operation with exponential backoff.
func WithBackoff(ctx context.Context, config Config, operation func() error, logger *logging.DeliveryLogger) Result {
	return WithBackoffAndReason(ctx, config, func() (error, string) {
		err := operation()
		reason := "unknown_error"
		if err != nil {
			reason = err.Error()
		}
		return err, reason
	}, logger)
}

// WithBackoffAndReason executes an operation with exponential backoff and
// per-attempt reason tracking for the delivery log.
func WithBackoffAndReason(ctx context.Context, config Config, operation func() (error, string), logger *logging.DeliveryLogger) Result {
	startTime := time.Now()

	result := Result{
		RetryReasons: make([]string, 0),
	}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		err, reason := operation()
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(startTime)
			if config.LogRetries && logger != nil && attempt > 0 {
				logger.Log("Operation succeeded after %d retries (total %v)", attempt, result.TotalDuration)
			}
			return result
		}

		result.LastError = err
		result.RetryReasons = append(result.RetryReasons, reason)

		if attempt >= config.MaxRetries {
			result.TotalDuration = time.Since(startTime)
			if config.LogRetries && logger != nil {
				logger.Log("Operation failed after %d attempts (total %v): %v",
					result.Attempts, result.TotalDuration, err)
			}
			return result
		}

		if !IsRetryable(err) {
			result.TotalDuration = time.Since(startTime)
			if config.LogRetries && logger != nil {
				logger.Log("Non-retryable error on attempt %d: %v", attempt+1, err)
			}
			return result
		}

		delay := calculateDelay(config, attempt)
		if config.LogRetries && logger != nil {
			logger.Log("Operation failed (attempt %d/%d): %v; retrying in %v",
				attempt+1, config.MaxRetries+1, err, delay)
		}

		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(startTime)
			if config.LogRetries && logger != nil {
				logger.Log("Operation cancelled during backoff delay: %v", ctx.Err())
			}
			return result
		case <-time.After(delay):
		}
	}

	result.TotalDuration = time.Since(startTime)
	return result
}

// calculateDelay computes baseDelay * multiplier^attempt, capped at MaxDelay,
// with up to ±10% jitter.
func calculateDelay(config Config, attempt int) time.Duration {
	delay := float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(config.BaseDelay)
		}
	}

	return time.Duration(delay)
}

// IsRetryable determines whether an error is worth retrying. Transport-level
// failures retry; everything else fails fast.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retryable := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"timeout",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"rate limit",
		"429",
		"502",
		"503",
		"504",
		"no such host",
		"network unreachable",
		"broken pipe",
		"context deadline exceeded",
	}

	for _, candidate := range retryable {
		if strings.Contains(errStr, candidate) {
			return true
		}
	}

	return false
}
