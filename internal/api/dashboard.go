package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/perchapp/perch/internal/dashboard"
)

// DashboardService is the dashboard surface the handler needs.
type DashboardService interface {
	Snapshot(ctx context.Context) (dashboard.Snapshot, error)
}

type dashboardHandler struct {
	svc    DashboardService
	logger *slog.Logger
}

func (h *dashboardHandler) get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, snap)
}
