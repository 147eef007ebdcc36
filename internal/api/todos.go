package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/todo"
)

// TodoService is the todo store surface the handler needs.
type TodoService interface {
	Create(ctx context.Context, in todo.CreateInput) (todo.Todo, error)
	List(ctx context.Context, limit, offset int) ([]todo.Todo, int, error)
	Update(ctx context.Context, id uuid.UUID, in todo.UpdateInput) (todo.Todo, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type todoHandler struct {
	svc    TodoService
	logger *slog.Logger
}

func (h *todoHandler) create(w http.ResponseWriter, r *http.Request) {
	var in todo.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	t, err := h.svc.Create(r.Context(), in)
	if isBadRequest(err, todo.ErrEmptyTitle, todo.ErrInvalidPriority) {
		WriteError(w, http.StatusBadRequest, "invalid_todo", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create todo", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, t)
}

func (h *todoHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultPageLimit, maxPageLimit)
	offset := parseIntParam(r, "offset", 0, 1<<30)

	todos, total, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list todos", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, newListResponse(todos, total))
}

func (h *todoHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	var in todo.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	t, err := h.svc.Update(r.Context(), id, in)
	if errors.Is(err, todo.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "todo not found", h.logger)
		return
	}
	if isBadRequest(err, todo.ErrEmptyTitle, todo.ErrInvalidPriority) {
		WriteError(w, http.StatusBadRequest, "invalid_todo", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "update_failed", "failed to update todo", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, t)
}

func (h *todoHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	err = h.svc.Delete(r.Context(), id)
	if errors.Is(err, todo.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "todo not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete todo", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
