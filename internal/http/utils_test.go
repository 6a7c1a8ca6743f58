package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

const testOwner = "google-123"

var testUser = &domain.User{ID: testOwner, Email: "ada@example.com", Name: "Ada Lovelace", IsActive: true}

// passAuth stands in for the auth middleware and attaches testUser
func passAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), testUser, "session-1")))
	})
}

// denyAuth rejects every request the way RequireAuth does for a missing session
func denyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, "Not authenticated", http.StatusUnauthorized)
	})
}

func newJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func assertRoutes(t *testing.T, mux *http.ServeMux, paths ...string) {
	t.Helper()
	for _, path := range paths {
		_, pattern := mux.Handler(&http.Request{Method: http.MethodGet, URL: &url.URL{Path: path}})
		assert.Equal(t, path, pattern, "route %s not registered", path)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "not found",
			err:        &domain.ErrNotFound{Entity: "contact", ID: "x"},
			wantStatus: http.StatusNotFound,
			wantError:  "Contact not found",
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("lookup: %w", &domain.ErrNotFound{Entity: "deal", ID: "x"}),
			wantStatus: http.StatusNotFound,
			wantError:  "Deal not found",
		},
		{
			name:       "validation",
			err:        domain.NewValidationError("first_name is required"),
			wantStatus: http.StatusBadRequest,
			wantError:  "first_name is required",
		},
		{
			name:       "unauthenticated",
			err:        &domain.ErrUnauthenticated{Reason: domain.ReasonExpired},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Not authenticated",
		},
		{
			name:       "oauth state",
			err:        domain.ErrOAuthState,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid or expired login attempt",
		},
		{
			name:       "oauth exchange",
			err:        &domain.ErrOAuthExchange{Err: errors.New("bad code")},
			wantStatus: http.StatusBadRequest,
			wantError:  "Failed to sign in with Google",
		},
		{
			name:       "unexpected",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to list contacts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeServiceError(w, logger.NewMockLogger(), tt.err, "list contacts")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantError, decodeBody(t, w)["error"])
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Task not found", notFoundMessage("task"))
	assert.Equal(t, "Not found", notFoundMessage(""))
}

func TestIDFromBody(t *testing.T) {
	id, err := idFromBody([]byte(`{"id":"abc","first_name":"Ada"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	for _, body := range []string{`{}`, `{"id":""}`, `{"id":42}`, `not json`} {
		_, err := idFromBody([]byte(body))
		var v domain.ValidationError
		assert.True(t, errors.As(err, &v), body)
	}
}

func TestRequireMethod(t *testing.T) {
	w := httptest.NewRecorder()
	ok := requireMethod(w, httptest.NewRequest(http.MethodPut, "/", nil), http.MethodPost)
	assert.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestReadBody_TooLarge(t *testing.T) {
	big := bytes.Repeat([]byte("a"), maxBodyBytes+1)
	w := httptest.NewRecorder()
	_, ok := readBody(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(big)))
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
