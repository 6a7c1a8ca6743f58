package http

import (
	"net/http"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// AnalyticsHandler serves the dashboard snapshot
type AnalyticsHandler struct {
	service domain.AnalyticsService
	logger  logger.Logger
}

func NewAnalyticsHandler(service domain.AnalyticsService, logger logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
	}
}

func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("/api/analytics.dashboard", requireAuth(http.HandlerFunc(h.handleDashboard)))
}

func (h *AnalyticsHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.GetDashboard(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
