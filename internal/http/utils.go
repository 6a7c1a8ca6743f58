package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

const maxBodyBytes = 1 << 20

// WriteJSONError writes a JSON error response with the given message and status code.
// It sets the Content-Type header to application/json and automatically formats
// the response as {"error": "message"}.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service error to its HTTP status. Unexpected
// errors are logged and reported as a generic failure.
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error, action string) {
	var notFound *domain.ErrNotFound
	var validation domain.ValidationError
	var oauthErr *domain.ErrOAuthExchange

	switch {
	case errors.As(err, &notFound):
		WriteJSONError(w, notFoundMessage(notFound.Entity), http.StatusNotFound)
	case errors.As(err, &validation):
		WriteJSONError(w, validation.Message, http.StatusBadRequest)
	case domain.IsUnauthenticated(err):
		WriteJSONError(w, "Not authenticated", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrOAuthState):
		WriteJSONError(w, "Invalid or expired login attempt", http.StatusBadRequest)
	case errors.As(err, &oauthErr):
		log.WithField("error", err.Error()).Warn("Google sign-in failed")
		WriteJSONError(w, "Failed to sign in with Google", http.StatusBadRequest)
	default:
		log.WithField("error", err.Error()).Error("Failed to " + action)
		WriteJSONError(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

func notFoundMessage(entity string) string {
	if entity == "" {
		return "Not found"
	}
	return strings.ToUpper(entity[:1]) + entity[1:] + " not found"
}

// requireMethod writes 405 and returns false when r does not use method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// readBody returns the request body, capped at maxBodyBytes
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// idFromBody reads the "id" member of a JSON body
func idFromBody(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", domain.NewValidationError("request body must be a JSON object")
	}
	id := gjson.GetBytes(body, "id")
	if id.Type != gjson.String || id.String() == "" {
		return "", domain.NewValidationError("id is required")
	}
	return id.String(), nil
}

// currentUser returns the user put on the context by the auth middleware
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		WriteJSONError(w, "Not authenticated", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

// optionalQuery returns a pointer to the query value, or nil when absent or empty
func optionalQuery(r *http.Request, key string) *string {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	return &v
}
