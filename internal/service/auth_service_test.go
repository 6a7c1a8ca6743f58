package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/internal/domain/mocks"
	"github.com/dealflow/crm/pkg/logger"
)

var authNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupAuthService(t *testing.T) (*AuthService, *mocks.MockUserRepository, paseto.V4AsymmetricSecretKey) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)

	secret := paseto.NewV4AsymmetricSecretKey()
	svc, err := NewAuthService(AuthServiceConfig{
		Repository: repo,
		PrivateKey: secret.ExportBytes(),
		PublicKey:  secret.Public().ExportBytes(),
		Logger:     logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return authNow }
	return svc, repo, secret
}

func signToken(secret paseto.V4AsymmetricSecretKey, claims map[string]string, exp time.Time) string {
	token := paseto.NewToken()
	token.SetIssuedAt(authNow)
	token.SetExpiration(exp)
	for k, v := range claims {
		token.SetString(k, v)
	}
	return token.V4Sign(secret, nil)
}

func TestNewAuthService_InvalidKeys(t *testing.T) {
	_, err := NewAuthService(AuthServiceConfig{PrivateKey: []byte("short"), Logger: logger.NewTestLogger(t)})
	assert.Error(t, err)

	secret := paseto.NewV4AsymmetricSecretKey()
	_, err = NewAuthService(AuthServiceConfig{PrivateKey: secret.ExportBytes(), PublicKey: []byte("short"), Logger: logger.NewTestLogger(t)})
	assert.Error(t, err)
}

func TestAuthService_StartSessionAndResolve(t *testing.T) {
	svc, repo, _ := setupAuthService(t)
	ctx := context.Background()
	user := &domain.User{ID: "google-123", Email: "ada@example.com", IsActive: true}

	var created *domain.Session
	repo.EXPECT().CreateSession(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, s *domain.Session) error {
		created = s
		return nil
	})

	token, expiresAt, err := svc.StartSession(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, authNow.Add(DefaultSessionTTL), expiresAt)
	require.NotNil(t, created)
	assert.Equal(t, "google-123", created.UserID)
	assert.Equal(t, expiresAt, created.ExpiresAt)

	repo.EXPECT().GetSession(gomock.Any(), created.ID, "google-123").Return(created, nil)
	repo.EXPECT().GetUserByID(gomock.Any(), "google-123").Return(user, nil)

	identity, err := svc.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user, identity.User)
	assert.Equal(t, created.ID, identity.SessionID)
}

func TestAuthService_StartSession_RepositoryError(t *testing.T) {
	svc, repo, _ := setupAuthService(t)

	repo.EXPECT().CreateSession(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	token, _, err := svc.StartSession(context.Background(), &domain.User{ID: "google-123"})
	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestAuthService_ResolveIdentity_Reasons(t *testing.T) {
	sessionID := uuid.New().String()
	validClaims := map[string]string{"user_id": "google-123", "session_id": sessionID}

	testCases := []struct {
		name       string
		token      func(secret paseto.V4AsymmetricSecretKey) string
		setupMocks func(repo *mocks.MockUserRepository)
		reason     domain.UnauthenticatedReason
	}{
		{
			name:   "missing token",
			token:  func(paseto.V4AsymmetricSecretKey) string { return "" },
			reason: domain.ReasonMissing,
		},
		{
			name:   "garbage",
			token:  func(paseto.V4AsymmetricSecretKey) string { return "v4.public.not-a-token" },
			reason: domain.ReasonMalformed,
		},
		{
			name: "signed by another key",
			token: func(paseto.V4AsymmetricSecretKey) string {
				return signToken(paseto.NewV4AsymmetricSecretKey(), validClaims, authNow.Add(time.Hour))
			},
			reason: domain.ReasonMalformed,
		},
		{
			name: "missing session claim",
			token: func(secret paseto.V4AsymmetricSecretKey) string {
				return signToken(secret, map[string]string{"user_id": "google-123"}, authNow.Add(time.Hour))
			},
			reason: domain.ReasonMalformed,
		},
		{
			name: "session claim is not a uuid",
			token: func(secret paseto.V4AsymmetricSecretKey) string {
				return signToken(secret, map[string]string{"user_id": "google-123", "session_id": "abc"}, authNow.Add(time.Hour))
			},
			reason: domain.ReasonMalformed,
		},
		{
			name: "token expired",
			token: func(secret paseto.V4AsymmetricSecretKey) string {
				return signToken(secret, validClaims, authNow)
			},
			reason: domain.ReasonExpired,
		},
		{
			name: "session revoked",
			token: func(secret paseto.V4AsymmetricSecretKey) string {
				return signToken(secret, validClaims, authNow.Add(time.Hour))
			},
			setupMocks: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetSession(gomock.Any(), sessionID, "google-123").
					Return(nil, &domain.ErrNotFound{Entity: "session", ID: sessionID})
			},
			reason: domain.ReasonUnknownSubject,
		},
		{
			name: "session row expired",
			token: func(secret paseto.V4AsymmetricSecretKey) string {
				return signToken(secret, validClaims, authNow.Add(time.Hour))
			},
			setupMocks: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetSession(gomock.Any(), sessionID, "google-123").
					Return(&domain.Session{ID: sessionID, UserID: "google-123", ExpiresAt: authNow.Add(-time.Second)}, nil)
			},
			reason: domain.ReasonExpired,
		},
		{
			name: "user deleted",
			token: func(secret paseto.V4AsymmetricSecretKey) string {
				return signToken(secret, validClaims, authNow.Add(time.Hour))
			},
			setupMocks: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetSession(gomock.Any(), sessionID, "google-123").
					Return(&domain.Session{ID: sessionID, UserID: "google-123", ExpiresAt: authNow.Add(time.Hour)}, nil)
				repo.EXPECT().GetUserByID(gomock.Any(), "google-123").
					Return(nil, &domain.ErrNotFound{Entity: "user", ID: "google-123"})
			},
			reason: domain.ReasonUnknownSubject,
		},
		{
			name: "user deactivated",
			token: func(secret paseto.V4AsymmetricSecretKey) string {
				return signToken(secret, validClaims, authNow.Add(time.Hour))
			},
			setupMocks: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetSession(gomock.Any(), sessionID, "google-123").
					Return(&domain.Session{ID: sessionID, UserID: "google-123", ExpiresAt: authNow.Add(time.Hour)}, nil)
				repo.EXPECT().GetUserByID(gomock.Any(), "google-123").
					Return(&domain.User{ID: "google-123", IsActive: false}, nil)
			},
			reason: domain.ReasonUnknownSubject,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, secret := setupAuthService(t)
			if tc.setupMocks != nil {
				tc.setupMocks(repo)
			}

			identity, err := svc.ResolveIdentity(context.Background(), tc.token(secret))
			assert.Nil(t, identity)

			var unauth *domain.ErrUnauthenticated
			require.ErrorAs(t, err, &unauth)
			assert.Equal(t, tc.reason, unauth.Reason)

			// the optional variant swallows every unauthenticated outcome
			if tc.setupMocks != nil {
				tc.setupMocks(repo)
			}
			identity, err = svc.ResolveOptionalIdentity(context.Background(), tc.token(secret))
			assert.NoError(t, err)
			assert.Nil(t, identity)
		})
	}
}

func TestAuthService_ResolveIdentity_InfrastructureError(t *testing.T) {
	svc, repo, secret := setupAuthService(t)
	sessionID := uuid.New().String()
	token := signToken(secret, map[string]string{"user_id": "google-123", "session_id": sessionID}, authNow.Add(time.Hour))

	repo.EXPECT().GetSession(gomock.Any(), sessionID, "google-123").Return(nil, errors.New("connection refused")).Times(2)

	_, err := svc.ResolveIdentity(context.Background(), token)
	require.Error(t, err)
	assert.False(t, domain.IsUnauthenticated(err))

	_, err = svc.ResolveOptionalIdentity(context.Background(), token)
	assert.EqualError(t, err, "connection refused")
}

func TestAuthService_EndSession(t *testing.T) {
	t.Run("deletes the session even after expiry", func(t *testing.T) {
		svc, repo, secret := setupAuthService(t)
		sessionID := uuid.New().String()
		token := signToken(secret, map[string]string{"user_id": "google-123", "session_id": sessionID}, authNow.Add(-time.Hour))

		repo.EXPECT().DeleteSession(gomock.Any(), sessionID).Return(nil)

		assert.NoError(t, svc.EndSession(context.Background(), token))
	})

	t.Run("ignores unusable tokens", func(t *testing.T) {
		svc, _, _ := setupAuthService(t)

		assert.NoError(t, svc.EndSession(context.Background(), ""))
		assert.NoError(t, svc.EndSession(context.Background(), "garbage"))
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		svc, repo, secret := setupAuthService(t)
		sessionID := uuid.New().String()
		token := signToken(secret, map[string]string{"user_id": "google-123", "session_id": sessionID}, authNow.Add(time.Hour))

		repo.EXPECT().DeleteSession(gomock.Any(), sessionID).Return(errors.New("db down"))

		assert.Error(t, svc.EndSession(context.Background(), token))
	})
}
