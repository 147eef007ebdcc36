package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/goals"
)

// GoalService is the goals store surface the handler needs.
type GoalService interface {
	Create(ctx context.Context, in goals.CreateInput) (goals.Goal, error)
	List(ctx context.Context, limit, offset int) ([]goals.Goal, int, error)
	Update(ctx context.Context, id uuid.UUID, in goals.UpdateInput) (goals.Goal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type goalHandler struct {
	svc    GoalService
	logger *slog.Logger
}

func (h *goalHandler) create(w http.ResponseWriter, r *http.Request) {
	var in goals.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	g, err := h.svc.Create(r.Context(), in)
	if isBadRequest(err, goals.ErrEmptyTitle, goals.ErrInvalidTarget) {
		WriteError(w, http.StatusBadRequest, "invalid_goal", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create goal", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, g)
}

func (h *goalHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultPageLimit, maxPageLimit)
	offset := parseIntParam(r, "offset", 0, 1<<30)

	items, total, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list goals", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, newListResponse(items, total))
}

func (h *goalHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	var in goals.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	g, err := h.svc.Update(r.Context(), id, in)
	if errors.Is(err, goals.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "goal not found", h.logger)
		return
	}
	if isBadRequest(err, goals.ErrInvalidProgress, goals.ErrInvalidStatus) {
		WriteError(w, http.StatusBadRequest, "invalid_goal", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "update_failed", "failed to update goal", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, g)
}

func (h *goalHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	err = h.svc.Delete(r.Context(), id)
	if errors.Is(err, goals.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "goal not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete goal", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
