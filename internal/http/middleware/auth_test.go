package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/internal/domain/mocks"
	"github.com/dealflow/crm/pkg/logger"
)

const cookieName = "crm_session"

func setupAuthMiddleware(t *testing.T) (*AuthMiddleware, *mocks.MockAuthService) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockAuthService(ctrl)
	return NewAuthMiddleware(resolver, cookieName, logger.NewMockLogger()), resolver
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{name: "nothing", setup: func(r *http.Request) {}, want: ""},
		{
			name:  "cookie",
			setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: cookieName, Value: "from-cookie"}) },
			want:  "from-cookie",
		},
		{
			name:  "bearer",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer from-header") },
			want:  "from-header",
		},
		{
			name:  "lowercase scheme",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "bearer from-header") },
			want:  "from-header",
		},
		{
			name: "cookie wins",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: cookieName, Value: "from-cookie"})
				r.Header.Set("Authorization", "Bearer from-header")
			},
			want: "from-cookie",
		},
		{
			name:  "other scheme",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") },
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			assert.Equal(t, tt.want, TokenFromRequest(r, cookieName))
		})
	}
}

func TestRequireAuth(t *testing.T) {
	user := &domain.User{ID: "google-1", Email: "ada@example.com"}

	tests := []struct {
		name       string
		setupMocks func(m *mocks.MockAuthService)
		wantStatus int
		wantNext   bool
	}{
		{
			name: "valid session",
			setupMocks: func(m *mocks.MockAuthService) {
				m.EXPECT().ResolveIdentity(gomock.Any(), "tok").Return(&domain.Identity{User: user, SessionID: "s-1"}, nil)
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name: "expired session",
			setupMocks: func(m *mocks.MockAuthService) {
				m.EXPECT().ResolveIdentity(gomock.Any(), "tok").
					Return(nil, &domain.ErrUnauthenticated{Reason: domain.ReasonExpired})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "store failure",
			setupMocks: func(m *mocks.MockAuthService) {
				m.EXPECT().ResolveIdentity(gomock.Any(), "tok").Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw, resolver := setupAuthMiddleware(t)
			tt.setupMocks(resolver)

			called := false
			handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, ok := domain.UserFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, user.ID, got.ID)
				assert.Equal(t, "s-1", domain.SessionIDFromContext(r.Context()))
			}))

			r := httptest.NewRequest(http.MethodGet, "/api/auth.me", nil)
			r.Header.Set("Authorization", "Bearer tok")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantNext, called)
			if !tt.wantNext {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	mw, resolver := setupAuthMiddleware(t)
	resolver.EXPECT().ResolveIdentity(gomock.Any(), "").
		Return(nil, &domain.ErrUnauthenticated{Reason: domain.ReasonMissing})

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	t.Run("anonymous passes through", func(t *testing.T) {
		mw, resolver := setupAuthMiddleware(t)
		resolver.EXPECT().ResolveOptionalIdentity(gomock.Any(), "").Return(nil, nil)

		handler := mw.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := domain.UserFromContext(r.Context())
			assert.False(t, ok)
			w.WriteHeader(http.StatusNoContent)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth.check", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("user attached", func(t *testing.T) {
		mw, resolver := setupAuthMiddleware(t)
		resolver.EXPECT().ResolveOptionalIdentity(gomock.Any(), "tok").
			Return(&domain.Identity{User: &domain.User{ID: "google-1"}, SessionID: "s-1"}, nil)

		handler := mw.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := domain.UserFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, "google-1", u.ID)
		}))

		r := httptest.NewRequest(http.MethodGet, "/api/auth.check", nil)
		r.AddCookie(&http.Cookie{Name: cookieName, Value: "tok"})
		handler.ServeHTTP(httptest.NewRecorder(), r)
	})

	t.Run("infrastructure error", func(t *testing.T) {
		mw, resolver := setupAuthMiddleware(t)
		resolver.EXPECT().ResolveOptionalIdentity(gomock.Any(), "").Return(nil, errors.New("db down"))

		handler := mw.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("must not be called")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
