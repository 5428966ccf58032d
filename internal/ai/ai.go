// Package ai defines the language model abstraction used for predictions
// and the legacy chat pass-through, plus decorators shared by all providers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Provider generates a text completion for a single prompt.
type Provider interface {
	Complete(ctx context.Context, params CompletionParams) (*Completion, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Purpose tells a provider which default model to use.
type Purpose string

const (
	PurposePrediction Purpose = "prediction"
	PurposeChat       Purpose = "chat"
)

// DefaultTemperature is used for predictions.
const DefaultTemperature float32 = 0.7

// CompletionParams contains parameters for one completion.
type CompletionParams struct {
	Prompt      string   // User prompt
	Model       string   // Optional model override
	Temperature *float32 // Nil leaves the provider default
	MaxTokens   int      // Zero leaves the provider default
	Purpose     Purpose
}

// Completion is the text returned by the model.
type Completion struct {
	Text   string
	Usage  UsageInfo
	Cached bool // Served from the completion cache
}

// UsageInfo tracks API usage for monitoring
type UsageInfo struct {
	Model        string        // Model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual HTTP requests
}

// WithDefaults fills zero values.
func (c ProviderConfig) WithDefaults() ProviderConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	return c
}

// Temperature returns a pointer to t for use in CompletionParams.
func Temperature(t float32) *float32 {
	return &t
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIContentPolicy indicates the prompt was refused
	EAIContentPolicy = errors.New("prompt violates content policy")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIEmptyResponse indicates the model returned no text
	EAIEmptyResponse = errors.New("ai provider returned an empty response")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// IsTimeout reports whether err means the call ran past its deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, EAITimeout) || errors.Is(err, context.DeadlineExceeded)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

// TransportError classifies a failed HTTP round trip. A request cancelled by
// its context deadline is a timeout; any other network error is treated as
// the service being unavailable.
func TransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", EAITimeout, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", EAIUnavailable, err)
}

// StatusError maps an HTTP status code from a provider API to an error.
func StatusError(statusCode int, message string) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return EAIUnauthorized
	case http.StatusTooManyRequests:
		return EAIRateLimit
	case http.StatusRequestTimeout:
		return EAITimeout
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, 529:
		return EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, message)
	}
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts in cfg are used up. Delays grow as base * 2^(attempt-1).
func Retry(ctx context.Context, cfg ProviderConfig, logger *slog.Logger, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt >= cfg.MaxRetries {
			break
		}

		delay := cfg.RetryBaseDelay * time.Duration(1<<(attempt-1))
		logger.Info("Retrying AI request", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return TransportError(ctx, ctx.Err())
		}
	}

	return lastErr
}
