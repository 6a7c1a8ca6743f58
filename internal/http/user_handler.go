package http

import (
	"net/http"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// UserHandler serves the signed-in user's own profile
type UserHandler struct {
	service domain.UserService
	cookie  SessionCookie
	logger  logger.Logger
}

func NewUserHandler(service domain.UserService, cookie SessionCookie, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		cookie:  cookie,
		logger:  logger,
	}
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("/api/users.me", requireAuth(http.HandlerFunc(h.handleMe)))
	mux.Handle("/api/users.updateMe", requireAuth(http.HandlerFunc(h.handleUpdateMe)))
	mux.Handle("/api/users.deleteMe", requireAuth(http.HandlerFunc(h.handleDeleteMe)))
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
	})
}

func (h *UserHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
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
	patch, err := domain.UserPatchFromJSON(body)
	if err != nil {
		writeServiceError(w, h.logger, err, "update user")
		return
	}

	updated, err := h.service.UpdateMe(r.Context(), user.ID, patch)
	if err != nil {
		writeServiceError(w, h.logger, err, "update user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": updated,
	})
}

// handleDeleteMe removes the account with everything it owns and signs the browser out
func (h *UserHandler) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteMe(r.Context(), user.ID); err != nil {
		writeServiceError(w, h.logger, err, "delete user")
		return
	}

	h.cookie.clear(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Account deleted successfully",
	})
}
