package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_auth_service.go -package mocks github.com/dealflow/crm/internal/domain AuthService
//go:generate mockgen -destination mocks/mock_oauth_service.go -package mocks github.com/dealflow/crm/internal/domain OAuthService
//go:generate mockgen -destination mocks/mock_identity_provider.go -package mocks github.com/dealflow/crm/internal/domain IdentityProvider

// Identity is what a valid session token resolves to
type Identity struct {
	User      *User
	SessionID string
}

// IdentityResolver maps a session token to the calling user.
//
// ResolveIdentity fails with *ErrUnauthenticated for a missing, malformed,
// expired or unknown-subject token. ResolveOptionalIdentity returns
// (nil, nil) in those cases and only fails on infrastructure errors.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*Identity, error)
	ResolveOptionalIdentity(ctx context.Context, token string) (*Identity, error)
}

// AuthService issues and revokes session tokens
type AuthService interface {
	IdentityResolver

	// StartSession creates a session row and returns its signed token
	StartSession(ctx context.Context, user *User) (token string, expiresAt time.Time, err error)

	// EndSession deletes the session behind token. Unresolvable tokens are ignored.
	EndSession(ctx context.Context, token string) error
}

// OAuthProfile is the identity returned by the provider after a code exchange
type OAuthProfile struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	RefreshToken  string
}

// IdentityProvider wraps the OAuth 2.0 authorization code flow of one provider
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)
}

// OAuthService drives the login redirect and callback
type OAuthService interface {
	// BeginLogin returns the provider URL the browser must be redirected to
	BeginLogin(ctx context.Context) (string, error)

	// CompleteLogin redeems state and code and returns the signed-in user
	CompleteLogin(ctx context.Context, code, state string) (*User, error)
}
