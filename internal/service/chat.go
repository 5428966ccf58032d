package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/ai"
	"github.com/DukeRupert/jyotai/internal/domain"
)

// NoReply is returned when the model answers with empty text.
const NoReply = "No response from AI"

// ChatService is the free-form pass-through to the chat model.
type ChatService struct {
	provider ai.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(provider ai.Provider, timeout time.Duration, logger *slog.Logger) *ChatService {
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	return &ChatService{provider: provider, timeout: timeout, logger: logger}
}

// Ask sends message to the chat model and returns its reply.
func (s *ChatService) Ask(ctx context.Context, message string) (string, error) {
	const op = "chat.ask"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return "", domain.NewValidationError(op, "message", "Message is required in request body")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.provider.Complete(callCtx, ai.CompletionParams{
		Prompt:  message,
		Purpose: ai.PurposeChat,
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("Chat completion failed", "provider", s.provider.Name(), "error", err)
		return "", domain.Internal(err, op, "Internal Server Error")
	}

	reply := strings.TrimSpace(completion.Text)
	if reply == "" {
		return NoReply, nil
	}
	return reply, nil
}
