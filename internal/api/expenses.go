package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/expenses"
)

// ExpenseService is the expenses store surface the handler needs.
type ExpenseService interface {
	Create(ctx context.Context, in expenses.Input) (expenses.Expense, error)
	List(ctx context.Context, month string, limit, offset int) ([]expenses.Expense, int, error)
	Summarize(ctx context.Context, month string) (expenses.Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type expenseHandler struct {
	svc    ExpenseService
	logger *slog.Logger
}

func (h *expenseHandler) create(w http.ResponseWriter, r *http.Request) {
	var in expenses.Input
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	e, err := h.svc.Create(r.Context(), in)
	if isBadRequest(err, expenses.ErrInvalidAmount, expenses.ErrEmptyCategory) {
		WriteError(w, http.StatusBadRequest, "invalid_expense", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create expense", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, e)
}

func (h *expenseHandler) list(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	limit := parseIntParam(r, "limit", defaultPageLimit, maxPageLimit)
	offset := parseIntParam(r, "offset", 0, 1<<30)

	items, total, err := h.svc.List(r.Context(), month, limit, offset)
	if isBadRequest(err, expenses.ErrInvalidMonth) {
		WriteError(w, http.StatusBadRequest, "invalid_month", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list expenses", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, newListResponse(items, total))
}

func (h *expenseHandler) summary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	sum, err := h.svc.Summarize(r.Context(), month)
	if isBadRequest(err, expenses.ErrInvalidMonth) {
		WriteError(w, http.StatusBadRequest, "invalid_month", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "summary_failed", "failed to summarize expenses", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, sum)
}

func (h *expenseHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	err = h.svc.Delete(r.Context(), id)
	if errors.Is(err, expenses.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "expense not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete expense", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
