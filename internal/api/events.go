package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/calendar"
)

// EventService is the calendar store surface the handler needs.
type EventService interface {
	Create(ctx context.Context, in calendar.Input) (calendar.Event, error)
	List(ctx context.Context, from, to time.Time) ([]calendar.Event, error)
	Update(ctx context.Context, id uuid.UUID, in calendar.Input) (calendar.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventHandler struct {
	svc    EventService
	logger *slog.Logger
}

// parseTimeParam reads an RFC 3339 timestamp query parameter; a date
// without time-of-day ("2006-01-02") is also accepted.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New(name + " must be RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}

func (h *eventHandler) create(w http.ResponseWriter, r *http.Request) {
	var in calendar.Input
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	e, err := h.svc.Create(r.Context(), in)
	if isBadRequest(err, calendar.ErrEmptyTitle, calendar.ErrInvalidRange) {
		WriteError(w, http.StatusBadRequest, "invalid_event", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create event", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, e)
}

func (h *eventHandler) list(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r, "from")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_param", err.Error(), h.logger)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_param", err.Error(), h.logger)
		return
	}

	events, err := h.svc.List(r.Context(), from, to)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list events", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, newListResponse(events, len(events)))
}

func (h *eventHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	var in calendar.Input
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	e, err := h.svc.Update(r.Context(), id, in)
	if errors.Is(err, calendar.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "event not found", h.logger)
		return
	}
	if isBadRequest(err, calendar.ErrEmptyTitle, calendar.ErrInvalidRange) {
		WriteError(w, http.StatusBadRequest, "invalid_event", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "update_failed", "failed to update event", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, e)
}

func (h *eventHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	err = h.svc.Delete(r.Context(), id)
	if errors.Is(err, calendar.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "event not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete event", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
