package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/perchapp/perch/internal/chat"
)

// ChatService is the chat surface the handler needs.
type ChatService interface {
	Ask(ctx context.Context, query string) (chat.Message, error)
	History(ctx context.Context, limit, offset int) ([]chat.Message, int, error)
	Clear(ctx context.Context) error
}

type chatHandler struct {
	svc    ChatService
	logger *slog.Logger
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	reply, err := h.svc.Ask(r.Context(), req.Message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		WriteError(w, http.StatusBadRequest, "empty_message", "message must not be empty", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "chat_failed", "failed to answer message", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, reply)
}

func (h *chatHandler) history(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultPageLimit, maxPageLimit)
	offset := parseIntParam(r, "offset", 0, 1<<30)

	messages, total, err := h.svc.History(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "history_failed", "failed to load chat history", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, newListResponse(messages, total))
}

func (h *chatHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, "clear_failed", "failed to clear chat history", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
