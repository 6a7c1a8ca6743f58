package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/internal/http/middleware"
	"github.com/dealflow/crm/pkg/logger"
	"github.com/dealflow/crm/pkg/ratelimiter"
)

// Rate limiter namespaces of the sign-in endpoints
const (
	LoginRateLimitNamespace    = "auth.login"
	CallbackRateLimitNamespace = "auth.callback"
)

// AuthHandler runs the Google sign-in flow and manages the session cookie
type AuthHandler struct {
	oauth       domain.OAuthService
	auth        domain.AuthService
	limiter     *ratelimiter.Limiter
	proxies     TrustedProxies
	cookie      SessionCookie
	frontendURL string
	logger      logger.Logger
}

func NewAuthHandler(
	oauth domain.OAuthService,
	auth domain.AuthService,
	limiter *ratelimiter.Limiter,
	proxies TrustedProxies,
	cookie SessionCookie,
	frontendURL string,
	logger logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		oauth:       oauth,
		auth:        auth,
		limiter:     limiter,
		proxies:     proxies,
		cookie:      cookie,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// RegisterRoutes registers the auth routes. requireAuth and optionalAuth
// come from the auth middleware.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, requireAuth, optionalAuth func(http.Handler) http.Handler) {
	mux.Handle("/api/auth.googleLogin", h.rateLimited(LoginRateLimitNamespace, http.HandlerFunc(h.handleGoogleLogin)))
	mux.Handle("/api/auth.googleCallback", h.rateLimited(CallbackRateLimitNamespace, http.HandlerFunc(h.handleGoogleCallback)))
	mux.Handle("/api/auth.me", requireAuth(http.HandlerFunc(h.handleMe)))
	mux.HandleFunc("/api/auth.logout", h.handleLogout)
	mux.Handle("/api/auth.check", optionalAuth(http.HandlerFunc(h.handleCheck)))
}

// rateLimited rejects clients over the namespace policy with 429
func (h *AuthHandler) rateLimited(namespace string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := h.proxies.ClientIP(r)
		if !h.limiter.Allow(namespace, ip) {
			wait := h.limiter.RetryAfter(namespace, ip)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			h.logger.WithFields(map[string]interface{}{
				"namespace": namespace,
				"ip":        ip,
			}).Warn("Sign-in rate limit exceeded")
			WriteJSONError(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AuthHandler) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	url, err := h.oauth.BeginLogin(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "start Google sign-in")
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// handleGoogleCallback finishes the flow, sets the session cookie and
// sends the browser to the dashboard
func (h *AuthHandler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		h.logger.WithField("provider_error", providerErr).Warn("Google sign-in was not granted")
		WriteJSONError(w, "Failed to sign in with Google", http.StatusBadRequest)
		return
	}

	code, state := query.Get("code"), query.Get("state")
	if code == "" || state == "" {
		WriteJSONError(w, "code and state are required", http.StatusBadRequest)
		return
	}

	user, err := h.oauth.CompleteLogin(r.Context(), code, state)
	if err != nil {
		writeServiceError(w, h.logger, err, "sign in with Google")
		return
	}

	token, expiresAt, err := h.auth.StartSession(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.logger, err, "create session")
		return
	}

	h.cookie.set(w, token, expiresAt)
	http.Redirect(w, r, h.frontendURL+"/dashboard", http.StatusFound)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
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

// handleLogout always clears the cookie. The session row is removed when
// the token still resolves.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	token := middleware.TokenFromRequest(r, h.cookie.Name)
	if token != "" {
		if err := h.auth.EndSession(r.Context(), token); err != nil {
			writeServiceError(w, h.logger, err, "log out")
			return
		}
	}

	h.cookie.clear(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Successfully logged out",
	})
}

func (h *AuthHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user":          user,
	})
}
