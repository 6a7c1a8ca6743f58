package app

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow/crm/config"
	"github.com/dealflow/crm/internal/domain/mocks"
	"github.com/dealflow/crm/pkg/logger"
)

// createTestConfig returns a config with a fresh PASETO key pair
func createTestConfig() *config.Config {
	secret := paseto.NewV4AsymmetricSecretKey()

	return &config.Config{
		Environment: "test",
		Version:     "test",
		FrontendURL: "http://localhost:3000",
		CORSOrigin:  "http://localhost:3000",
		APIEndpoint: "http://localhost:8000",
		Database: config.DatabaseConfig{
			User:     "postgres_test",
			Password: "postgres_test",
			Host:     "localhost",
			Port:     5432,
			DBName:   "crm_test",
		},
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Security: config.SecurityConfig{
			PasetoPrivateKeyBytes: secret.ExportBytes(),
			PasetoPublicKeyBytes:  secret.Public().ExportBytes(),
			SecretKey:             "test-secret-key-for-encryption",
		},
		OAuth: config.OAuthConfig{
			GoogleClientID:     "client-id",
			GoogleClientSecret: "client-secret",
			GoogleRedirectURL:  "http://localhost:8000/api/auth.googleCallback",
		},
		Session: config.SessionConfig{
			CookieName: "crm_session",
			MaxAge:     7 * 24 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			AuthMaxAttempts: 20,
			AuthWindow:      time.Minute,
		},
	}
}

func setupTestDBMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

// newInitializedApp wires every layer on top of a sqlmock database
func newInitializedApp(t *testing.T) (*App, sqlmock.Sqlmock) {
	db, mock := setupTestDBMock(t)
	a := NewApp(createTestConfig(), WithMockDB(db), WithLogger(logger.NewMockLogger())).(*App)
	require.NoError(t, a.Initialize())
	return a, mock
}

func TestNewApp(t *testing.T) {
	cfg := createTestConfig()
	a := NewApp(cfg)

	require.NotNil(t, a)
	assert.Equal(t, cfg, a.GetConfig())
	assert.NotNil(t, a.GetLogger())
	assert.NotNil(t, a.GetMux())
	assert.Nil(t, a.GetDB())
	assert.False(t, a.IsServerCreated())
}

func TestAppInitRepositories(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		a := NewApp(createTestConfig(), WithLogger(logger.NewMockLogger()))
		assert.Error(t, a.InitRepositories())
	})

	t.Run("with database", func(t *testing.T) {
		db, _ := setupTestDBMock(t)
		defer db.Close()

		a := NewApp(createTestConfig(), WithMockDB(db), WithLogger(logger.NewMockLogger()))
		require.NoError(t, a.InitRepositories())

		assert.NotNil(t, a.GetUserRepository())
		assert.NotNil(t, a.GetContactRepository())
		assert.NotNil(t, a.GetDealRepository())
		assert.NotNil(t, a.GetTaskRepository())
	})
}

func TestAppInitServices_InvalidKeys(t *testing.T) {
	db, _ := setupTestDBMock(t)
	defer db.Close()

	cfg := createTestConfig()
	cfg.Security.PasetoPrivateKeyBytes = []byte("too-short")

	a := NewApp(cfg, WithMockDB(db), WithLogger(logger.NewMockLogger()))
	require.NoError(t, a.InitRepositories())
	assert.Error(t, a.InitServices())
}

func TestInitialize(t *testing.T) {
	a, mock := newInitializedApp(t)

	// a mock database is kept as is and no schema is created
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectClose()
	require.NoError(t, a.Shutdown(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppInitHandlers_Routes(t *testing.T) {
	a, _ := newInitializedApp(t)
	defer a.Shutdown(context.Background())

	routes := []string{
		"/api/health",
		"/api/auth.googleLogin",
		"/api/auth.googleCallback",
		"/api/auth.me",
		"/api/auth.logout",
		"/api/auth.check",
		"/api/users.me",
		"/api/users.updateMe",
		"/api/users.deleteMe",
		"/api/contacts.list",
		"/api/contacts.get",
		"/api/contacts.create",
		"/api/contacts.update",
		"/api/contacts.delete",
		"/api/deals.list",
		"/api/deals.get",
		"/api/deals.create",
		"/api/deals.update",
		"/api/deals.delete",
		"/api/tasks.list",
		"/api/tasks.get",
		"/api/tasks.create",
		"/api/tasks.update",
		"/api/tasks.complete",
		"/api/tasks.delete",
		"/api/analytics.dashboard",
		"/api/demo.seed",
	}

	for _, route := range routes {
		req := httptest.NewRequest(http.MethodGet, route, nil)
		_, pattern := a.GetMux().Handler(req)
		assert.Equal(t, route, pattern, "route %s not registered", route)
	}
}

func TestAppHandler_EndToEnd(t *testing.T) {
	a, _ := newInitializedApp(t)
	defer a.Shutdown(context.Background())
	handler := a.Handler()

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","version":"test"}`, w.Body.String())
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("protected route without session", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts.list", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Not authenticated"}`, w.Body.String())
	})

	t.Run("preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/contacts.create", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("login redirects to Google", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth.googleLogin", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "accounts.google.com")
		assert.Equal(t, 1, a.oauthStates.Len())
	})
}

func TestAppShutdown(t *testing.T) {
	db, mock := setupTestDBMock(t)
	mock.ExpectClose()

	a := NewApp(createTestConfig(), WithMockDB(db), WithLogger(logger.NewMockLogger()))
	require.NoError(t, a.Shutdown(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForServerStartNilChannel(t *testing.T) {
	a := NewApp(createTestConfig(), WithLogger(logger.NewMockLogger())).(*App)
	a.serverStarted = nil

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, a.WaitForServerStart(ctx))
}

func TestAppStart(t *testing.T) {
	db, mock := setupTestDBMock(t)
	mock.ExpectClose()

	cfg := createTestConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	a := NewApp(cfg, WithMockDB(db), WithLogger(logger.NewMockLogger()))
	require.NoError(t, a.Initialize())

	errCh := make(chan error, 1)
	go func() { errCh <- a.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, a.WaitForServerStart(ctx))

	require.NoError(t, a.Shutdown(context.Background()))
	assert.ErrorIs(t, <-errCh, http.ErrServerClosed)
}

func TestGracefulShutdownMethods(t *testing.T) {
	a := NewApp(createTestConfig(), WithLogger(logger.NewMockLogger()))

	a.SetShutdownTimeout(90 * time.Second)
	appImpl, ok := a.(*App)
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, appImpl.shutdownTimeout)

	assert.Equal(t, int64(0), a.GetActiveRequestCount())

	shutdownCtx := a.GetShutdownContext()
	select {
	case <-shutdownCtx.Done():
		t.Fatal("Shutdown context should not be cancelled initially")
	default:
	}

	require.NoError(t, a.Shutdown(context.Background()))

	select {
	case <-shutdownCtx.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Shutdown context should be cancelled after shutdown")
	}
}

func TestGracefulShutdownMiddleware(t *testing.T) {
	a := NewApp(createTestConfig(), WithLogger(logger.NewMockLogger())).(*App)

	var sawShutdownCtx bool
	wrapped := a.gracefulShutdownMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawShutdownCtx = r.Context().Value(shutdownContextKey{}).(context.Context)
		assert.Equal(t, int64(1), a.GetActiveRequestCount())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawShutdownCtx)
	assert.Equal(t, int64(0), a.GetActiveRequestCount())

	a.shutdownCancel()

	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Server is shutting down"}`, rec.Body.String())
}

func TestGracefulShutdownTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().WithFields(gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().Info(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()

	a := NewApp(createTestConfig(), WithLogger(mockLogger))
	a.SetShutdownTimeout(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// no server is running, so only cleanup happens
	assert.NoError(t, a.Shutdown(ctx))
}

func TestActiveRequestTracking(t *testing.T) {
	a := NewApp(createTestConfig(), WithLogger(logger.NewMockLogger())).(*App)

	a.incrementActiveRequests()
	a.incrementActiveRequests()
	assert.Equal(t, int64(2), a.GetActiveRequestCount())

	a.decrementActiveRequests()
	a.decrementActiveRequests()
	assert.Equal(t, int64(0), a.GetActiveRequestCount())
}

func TestInitDB_RecordsPoolStatsUntilShutdown(t *testing.T) {
	db, mock := setupTestDBMock(t)
	mock.ExpectClose()

	cfg := createTestConfig()
	cfg.Tracing.Enabled = true

	a := NewApp(cfg, WithMockDB(db), WithLogger(logger.NewMockLogger())).(*App)
	require.NoError(t, a.InitDB())
	require.NotNil(t, a.stopDBStats)

	require.NoError(t, a.Shutdown(context.Background()))
	assert.Nil(t, a.stopDBStats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitDB_NoPoolStatsWithoutTracing(t *testing.T) {
	db, _ := setupTestDBMock(t)
	defer db.Close()

	a := NewApp(createTestConfig(), WithMockDB(db), WithLogger(logger.NewMockLogger())).(*App)
	require.NoError(t, a.InitDB())
	assert.Nil(t, a.stopDBStats)
}
