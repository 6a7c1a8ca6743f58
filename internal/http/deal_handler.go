package http

import (
	"fmt"
	"net/http"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// DealHandler handles HTTP requests related to deals
type DealHandler struct {
	service domain.DealService
	logger  logger.Logger
}

func NewDealHandler(service domain.DealService, logger logger.Logger) *DealHandler {
	return &DealHandler{
		service: service,
		logger:  logger,
	}
}

func (h *DealHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("/api/deals.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/deals.get", requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/deals.create", requireAuth(http.HandlerFunc(h.handleCreate)))
	mux.Handle("/api/deals.update", requireAuth(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("/api/deals.delete", requireAuth(http.HandlerFunc(h.handleDelete)))
}

func (h *DealHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params, err := domain.ParseListParams(query.Get("skip"), query.Get("limit"), query.Get("search"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list deals")
		return
	}

	filter := domain.DealFilter{ListParams: params, ContactID: optionalQuery(r, "contact_id")}
	if stage := optionalQuery(r, "stage"); stage != nil {
		s := domain.DealStage(*stage)
		if !s.IsValid() {
			WriteJSONError(w, fmt.Sprintf("invalid deal stage: %s", *stage), http.StatusBadRequest)
			return
		}
		filter.Stage = &s
	}

	deals, err := h.service.ListDeals(r.Context(), user.ID, filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "list deals")
		return
	}

	if deals == nil {
		deals = []*domain.Deal{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deals": deals,
	})
}

func (h *DealHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	deal, err := h.service.GetDeal(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get deal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deal": deal,
	})
}

func (h *DealHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	patch, err := domain.DealPatchFromJSON(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "create deal")
		return
	}

	deal, err := h.service.CreateDeal(r.Context(), user.ID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "create deal")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"deal": deal,
	})
}

func (h *DealHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := idFromBody(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "update deal")
		return
	}
	patch, err := domain.DealPatchFromJSON(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "update deal")
		return
	}

	deal, err := h.service.UpdateDeal(r.Context(), user.ID, id, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "update deal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deal": deal,
	})
}

func (h *DealHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	id, err := idFromBody(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "delete deal")
		return
	}

	if err := h.service.DeleteDeal(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, h.logger, err, "delete deal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Deal deleted successfully",
	})
}
