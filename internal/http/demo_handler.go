package http

import (
	"net/http"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// DemoHandler seeds sample data for a new account
type DemoHandler struct {
	service domain.DemoService
	logger  logger.Logger
}

func NewDemoHandler(service domain.DemoService, logger logger.Logger) *DemoHandler {
	return &DemoHandler{
		service: service,
		logger:  logger,
	}
}

func (h *DemoHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("/api/demo.seed", requireAuth(http.HandlerFunc(h.handleSeed)))
}

func (h *DemoHandler) handleSeed(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	seeded, err := h.service.Seed(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "seed demo data")
		return
	}

	message := "Demo data created successfully"
	if !seeded {
		message = "Demo data already exists"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"seeded":  seeded,
	})
}
