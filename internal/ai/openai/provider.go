// Package openai implements ai.Provider on the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/ai"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is used for predictions
	DefaultModel = "gpt-4o"

	// DefaultChatModel is used for the chat pass-through
	DefaultChatModel = "gpt-3.5-turbo"
)

// Config contains configuration for the OpenAI provider
type Config struct {
	APIKey         string
	Model          string
	ChatModel      string
	BaseURL        string // API root including /v1; empty uses api.openai.com
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.Provider with the go-openai client.
type Provider struct {
	config Config
	client *openai.Client
	logger *slog.Logger
}

// New creates a new OpenAI provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ChatModel == "" {
		config.ChatModel = DefaultChatModel
	}
	config.ProviderConfig = config.ProviderConfig.WithDefaults()

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.ProviderConfig.RequestTimeout}

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

// Name returns "openai".
func (p *Provider) Name() string {
	return "openai"
}

// Complete sends params.Prompt as a single user message.
func (p *Provider) Complete(ctx context.Context, params ai.CompletionParams) (*ai.Completion, error) {
	start := time.Now()
	req := p.buildRequest(params)

	var resp openai.ChatCompletionResponse
	err := ai.Retry(ctx, p.config.ProviderConfig, p.logger, func(ctx context.Context) error {
		var err error
		resp, err = p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return mapError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return nil, ai.WrapError("execute request", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ai.WrapError("parse response", ai.EAIEmptyResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return nil, ai.WrapError("parse response", ai.EAIContentPolicy)
	}

	return &ai.Completion{
		Text: strings.TrimSpace(choice.Message.Content),
		Usage: ai.UsageInfo{
			Model:        resp.Model,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			Duration:     time.Since(start),
		},
	}, nil
}

func (p *Provider) buildRequest(params ai.CompletionParams) openai.ChatCompletionRequest {
	model := params.Model
	if model == "" {
		model = p.config.Model
		if params.Purpose == ai.PurposeChat {
			model = p.config.ChatModel
		}
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: params.Prompt},
		},
		MaxTokens: params.MaxTokens,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	return req
}

// mapError converts go-openai failures into the ai error set so Retry can
// tell transient failures from permanent ones.
func mapError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return ai.StatusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return ai.StatusError(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return ai.TransportError(ctx, err)
}
