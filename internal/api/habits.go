package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/habits"
)

// HabitService is the habits store surface the handler needs.
type HabitService interface {
	Create(ctx context.Context, in habits.CreateInput) (habits.Habit, error)
	List(ctx context.Context) ([]habits.Habit, error)
	Complete(ctx context.Context, id uuid.UUID) (habits.Habit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type habitHandler struct {
	svc    HabitService
	logger *slog.Logger
}

func (h *habitHandler) create(w http.ResponseWriter, r *http.Request) {
	var in habits.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	habit, err := h.svc.Create(r.Context(), in)
	if isBadRequest(err, habits.ErrEmptyName, habits.ErrInvalidFrequency) {
		WriteError(w, http.StatusBadRequest, "invalid_habit", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create habit", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, habit)
}

func (h *habitHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list habits", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, newListResponse(items, len(items)))
}

func (h *habitHandler) complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	habit, err := h.svc.Complete(r.Context(), id)
	if errors.Is(err, habits.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "habit not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "complete_failed", "failed to complete habit", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, habit)
}

func (h *habitHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	err = h.svc.Delete(r.Context(), id)
	if errors.Is(err, habits.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "habit not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete habit", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
