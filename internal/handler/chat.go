package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/jyotai/internal/service"
)

// ChatHandler serves the legacy free-form chat endpoint.
type ChatHandler struct {
	chat   *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// RegisterRoutes registers POST /ask-gpt.
func (h *ChatHandler) RegisterRoutes(rt *Router) {
	rt.HandleFunc("POST /ask-gpt", h.Ask)
}

type askRequest struct {
	Message string `json:"message" validate:"max=4000"`
}

type askResponse struct {
	Reply string `json:"reply"`
}

// Ask handles POST /ask-gpt.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ask"

	var req askRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := validateStruct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	reply, err := h.chat.Ask(r.Context(), req.Message)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Reply: reply})
}
