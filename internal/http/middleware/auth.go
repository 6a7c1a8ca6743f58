package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// AuthMiddleware resolves the session token of a request to a user. The
// token is read from the session cookie first, then from a Bearer header.
type AuthMiddleware struct {
	resolver   domain.IdentityResolver
	cookieName string
	logger     logger.Logger
}

func NewAuthMiddleware(resolver domain.IdentityResolver, cookieName string, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		resolver:   resolver,
		cookieName: cookieName,
		logger:     logger,
	}
}

// TokenFromRequest returns the session token carried by r, or ""
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireAuth rejects requests without a valid session with 401
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.resolver.ResolveIdentity(r.Context(), TokenFromRequest(r, m.cookieName))
		if err != nil {
			if domain.IsUnauthenticated(err) {
				writeJSONError(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			m.logger.WithField("error", err.Error()).Error("Failed to resolve identity")
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		ctx := domain.WithUser(r.Context(), identity.User, identity.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user when the request carries a valid session
// and lets anonymous requests through
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.resolver.ResolveOptionalIdentity(r.Context(), TokenFromRequest(r, m.cookieName))
		if err != nil {
			m.logger.WithField("error", err.Error()).Error("Failed to resolve identity")
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if identity != nil {
			r = r.WithContext(domain.WithUser(r.Context(), identity.User, identity.SessionID))
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
