package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/notes"
)

// NoteService is the notes store surface the handler needs.
type NoteService interface {
	Create(ctx context.Context, in notes.Input) (notes.Note, error)
	List(ctx context.Context, q string, limit, offset int) ([]notes.Note, int, error)
	Update(ctx context.Context, id uuid.UUID, in notes.Input) (notes.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type noteHandler struct {
	svc    NoteService
	logger *slog.Logger
}

func (h *noteHandler) create(w http.ResponseWriter, r *http.Request) {
	var in notes.Input
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	n, err := h.svc.Create(r.Context(), in)
	if isBadRequest(err, notes.ErrEmptyTitle) {
		WriteError(w, http.StatusBadRequest, "invalid_note", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create note", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, n)
}

func (h *noteHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := parseIntParam(r, "limit", defaultPageLimit, maxPageLimit)
	offset := parseIntParam(r, "offset", 0, 1<<30)

	items, total, err := h.svc.List(r.Context(), q, limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list notes", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, newListResponse(items, total))
}

func (h *noteHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	var in notes.Input
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	n, err := h.svc.Update(r.Context(), id, in)
	if errors.Is(err, notes.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "note not found", h.logger)
		return
	}
	if isBadRequest(err, notes.ErrEmptyTitle) {
		WriteError(w, http.StatusBadRequest, "invalid_note", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "update_failed", "failed to update note", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, n)
}

func (h *noteHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	err = h.svc.Delete(r.Context(), id)
	if errors.Is(err, notes.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "note not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete note", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
