package http

import (
	"fmt"
	"net/http"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// ContactHandler handles HTTP requests related to contacts
type ContactHandler struct {
	service domain.ContactService
	logger  logger.Logger
}

func NewContactHandler(service domain.ContactService, logger logger.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the contact routes behind requireAuth
func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("/api/contacts.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/contacts.get", requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/contacts.create", requireAuth(http.HandlerFunc(h.handleCreate)))
	mux.Handle("/api/contacts.update", requireAuth(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("/api/contacts.delete", requireAuth(http.HandlerFunc(h.handleDelete)))
}

func (h *ContactHandler) handleList(w http.ResponseWriter, r *http.Request) {
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
		writeServiceError(w, h.logger, err, "list contacts")
		return
	}

	filter := domain.ContactFilter{ListParams: params}
	if status := optionalQuery(r, "status"); status != nil {
		s := domain.ContactStatus(*status)
		if !s.IsValid() {
			WriteJSONError(w, fmt.Sprintf("invalid contact status: %s", *status), http.StatusBadRequest)
			return
		}
		filter.Status = &s
	}

	contacts, err := h.service.ListContacts(r.Context(), user.ID, filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "list contacts")
		return
	}

	if contacts == nil {
		contacts = []*domain.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": contacts,
	})
}

func (h *ContactHandler) handleGet(w http.ResponseWriter, r *http.Request) {
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

	contact, err := h.service.GetContact(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get contact")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contact": contact,
	})
}

func (h *ContactHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
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
	patch, err := domain.ContactPatchFromJSON(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "create contact")
		return
	}

	contact, err := h.service.CreateContact(r.Context(), user.ID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "create contact")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"contact": contact,
	})
}

func (h *ContactHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
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
		writeServiceError(w, h.logger, err, "update contact")
		return
	}
	patch, err := domain.ContactPatchFromJSON(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "update contact")
		return
	}

	contact, err := h.service.UpdateContact(r.Context(), user.ID, id, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "update contact")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contact": contact,
	})
}

func (h *ContactHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
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
		writeServiceError(w, h.logger, err, "delete contact")
		return
	}

	if err := h.service.DeleteContact(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, h.logger, err, "delete contact")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Contact deleted successfully",
	})
}
