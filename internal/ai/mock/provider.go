// Package mock provides an ai.Provider that returns canned completions.
package mock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/jyotai/internal/ai"
)

// DefaultPrediction is returned for prediction prompts when no Response is set.
const DefaultPrediction = "```json\n" + `{
  "summary": "The stars align in your favour this season. Jupiter's gaze on your tenth house brings recognition for steady work.",
  "insights": {
    "marriage": "Venus supports harmony. Open conversations strengthen bonds.",
    "career": "A mentor figure appears. Say yes to the unexpected project.",
    "health": "Balance rest with movement. Morning walks restore energy.",
    "children": "A season of joy and small milestones.",
    "wealth": "Slow, steady savings outperform quick gambles this quarter.",
    "travel": "A short journey to the north brings clarity."
  }
}` + "\n```"

// DefaultReply is returned for chat prompts when no Response is set.
const DefaultReply = "The planets suggest patience. Good things are on their way."

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex

	// Configurable responses for testing
	Response string
	Error    error
	Delay    time.Duration

	// Call tracking for testing
	Calls      int
	LastParams ai.CompletionParams
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// Name returns "mock".
func (p *Provider) Name() string {
	return "mock"
}

// Complete returns the configured Response or Error. With Delay set it
// waits first, honouring ctx cancellation.
func (p *Provider) Complete(ctx context.Context, params ai.CompletionParams) (*ai.Completion, error) {
	p.mu.Lock()
	p.Calls++
	p.LastParams = params
	resp, err, delay := p.Response, p.Error, p.Delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ai.TransportError(ctx, ctx.Err())
		}
	}

	if err != nil {
		return nil, err
	}
	if resp == "" {
		resp = DefaultPrediction
		if params.Purpose == ai.PurposeChat {
			resp = DefaultReply
		}
	}

	if p.logger != nil {
		p.logger.Debug("mock completion", "purpose", params.Purpose, "prompt_len", len(params.Prompt))
	}

	return &ai.Completion{
		Text: resp,
		Usage: ai.UsageInfo{
			Model:        "mock",
			InputTokens:  len(params.Prompt) / 4,
			OutputTokens: len(resp) / 4,
		},
	}, nil
}

// CallCount returns the number of Complete calls so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls
}
