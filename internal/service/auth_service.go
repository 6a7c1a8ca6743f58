package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
	"github.com/dealflow/crm/pkg/tracing"
)

// DefaultSessionTTL is how long a session cookie and its row stay valid
const DefaultSessionTTL = 7 * 24 * time.Hour

// AuthService signs session tokens and resolves them back to users. A token
// is only good while its session row exists, so logout is immediate.
type AuthService struct {
	repo       domain.UserRepository
	logger     logger.Logger
	privateKey paseto.V4AsymmetricSecretKey
	publicKey  paseto.V4AsymmetricPublicKey
	sessionTTL time.Duration
	now        func() time.Time
}

type AuthServiceConfig struct {
	Repository domain.UserRepository
	PrivateKey []byte
	PublicKey  []byte
	SessionTTL time.Duration
	Logger     logger.Logger
}

func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	privateKey, err := paseto.NewV4AsymmetricSecretKeyFromBytes(cfg.PrivateKey)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.WithField("error", err.Error()).Error("Error creating PASETO private key")
		}
		return nil, err
	}

	publicKey, err := paseto.NewV4AsymmetricPublicKeyFromBytes(cfg.PublicKey)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.WithField("error", err.Error()).Error("Error creating PASETO public key")
		}
		return nil, err
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &AuthService{
		repo:       cfg.Repository,
		logger:     cfg.Logger,
		privateKey: privateKey,
		publicKey:  publicKey,
		sessionTTL: ttl,
		now:        time.Now,
	}, nil
}

type sessionClaims struct {
	userID    string
	sessionID string
	expiresAt time.Time
}

// parseClaims verifies the signature only. Expiry is checked by the caller
// against the injected clock.
func (s *AuthService) parseClaims(token string) (*sessionClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	verified, err := parser.ParseV4Public(s.publicKey, token, nil)
	if err != nil {
		return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonMalformed}
	}

	userID, err := verified.GetString("user_id")
	if err != nil || userID == "" {
		return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonMalformed}
	}
	sessionID, err := verified.GetString("session_id")
	if err != nil || !govalidator.IsUUID(sessionID) {
		return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonMalformed}
	}
	expiresAt, err := verified.GetExpiration()
	if err != nil {
		return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonMalformed}
	}

	return &sessionClaims{userID: userID, sessionID: sessionID, expiresAt: expiresAt}, nil
}

// ResolveIdentity turns a session token into the signed-in user
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "AuthService", "ResolveIdentity")
	defer span.End()

	if token == "" {
		return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonMissing}
	}

	claims, err := s.parseClaims(token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !now.Before(claims.expiresAt) {
		return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonExpired}
	}

	session, err := s.repo.GetSession(ctx, claims.sessionID, claims.userID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonUnknownSubject}
		}
		s.logger.WithField("user_id", claims.userID).WithField("session_id", claims.sessionID).WithField("error", err.Error()).Error("Failed to query session")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}
	if session.Expired(now) {
		return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonExpired}
	}

	user, err := s.repo.GetUserByID(ctx, claims.userID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonUnknownSubject}
		}
		s.logger.WithField("user_id", claims.userID).WithField("error", err.Error()).Error("Failed to query user")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}
	if !user.IsActive {
		return nil, &domain.ErrUnauthenticated{Reason: domain.ReasonUnknownSubject}
	}

	tracing.AddAttribute(ctx, "user.id", user.ID)
	return &domain.Identity{User: user, SessionID: session.ID}, nil
}

// ResolveOptionalIdentity is ResolveIdentity for endpoints that also serve anonymous callers
func (s *AuthService) ResolveOptionalIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	identity, err := s.ResolveIdentity(ctx, token)
	if domain.IsUnauthenticated(err) {
		return nil, nil
	}
	return identity, err
}

// StartSession creates a session row and signs a token pointing at it
func (s *AuthService) StartSession(ctx context.Context, user *domain.User) (string, time.Time, error) {
	now := s.now().UTC()
	session := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		s.logger.WithField("user_id", user.ID).WithField("error", err.Error()).Error("Failed to create session")
		return "", time.Time{}, err
	}

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(session.ExpiresAt)
	token.SetString("user_id", user.ID)
	token.SetString("session_id", session.ID)

	signed := token.V4Sign(s.privateKey, nil)
	if signed == "" {
		s.logger.WithField("user_id", user.ID).WithField("session_id", session.ID).Error("Failed to sign authentication token")
		return "", time.Time{}, fmt.Errorf("failed to sign session token")
	}

	return signed, session.ExpiresAt, nil
}

// EndSession deletes the session behind token. Tokens that fail signature
// checks are ignored; expired ones still have their row removed.
func (s *AuthService) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.parseClaims(token)
	if err != nil {
		return nil
	}

	if err := s.repo.DeleteSession(ctx, claims.sessionID); err != nil {
		s.logger.WithField("session_id", claims.sessionID).WithField("error", err.Error()).Error("Failed to delete session")
		return err
	}
	return nil
}
