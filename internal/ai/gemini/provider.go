// Package gemini implements ai.Provider on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/ai"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Config contains configuration for the Gemini provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.Provider using the genai SDK.
type Provider struct {
	config Config
	client *genai.Client
	logger *slog.Logger
}

// New creates a Gemini provider.
func New(ctx context.Context, config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	config.ProviderConfig = config.ProviderConfig.WithDefaults()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Provider{config: config, client: client, logger: logger}, nil
}

// Name returns "gemini".
func (p *Provider) Name() string {
	return "gemini"
}

// Complete generates content for params.Prompt.
func (p *Provider) Complete(ctx context.Context, params ai.CompletionParams) (*ai.Completion, error) {
	start := time.Now()

	model := p.config.Model
	if params.Model != "" {
		model = params.Model
	}

	cfg := &genai.GenerateContentConfig{}
	if params.Temperature != nil {
		cfg.Temperature = genai.Ptr(*params.Temperature)
	}
	if params.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(params.MaxTokens)
	}

	var resp *genai.GenerateContentResponse
	err := ai.Retry(ctx, p.config.ProviderConfig, p.logger, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, p.config.ProviderConfig.RequestTimeout)
		defer cancel()

		var err error
		resp, err = p.client.Models.GenerateContent(callCtx, model, genai.Text(params.Prompt), cfg)
		if err != nil {
			return classify(callCtx, err)
		}
		return nil
	})
	if err != nil {
		return nil, ai.WrapError("generate content", err)
	}

	text := extractText(resp)
	if text == "" {
		return nil, ai.WrapError("parse response", ai.EAIEmptyResponse)
	}

	usage := ai.UsageInfo{Model: model, Duration: time.Since(start)}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ai.Completion{Text: text, Usage: usage}, nil
}

// extractText returns the text parts of the first candidate that has content.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}

// classify maps SDK errors onto the ai error sentinels.
func classify(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ai.StatusError(apiErr.Code, apiErr.Message)
	}
	return ai.TransportError(ctx, err)
}
