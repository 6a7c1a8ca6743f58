package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/cache"
	"github.com/dealflow/crm/pkg/crypto"
	"github.com/dealflow/crm/pkg/logger"
	"github.com/dealflow/crm/pkg/tracing"
)

// OAuthStateTTL bounds how long a login redirect may take to come back
const OAuthStateTTL = 10 * time.Minute

// OAuthService runs the authorization code flow. States are single use and
// live only in this process.
type OAuthService struct {
	provider domain.IdentityProvider
	users    domain.UserRepository
	states   cache.Store[time.Time]
	sealer   *crypto.Sealer
	logger   logger.Logger
	now      func() time.Time
}

func NewOAuthService(
	provider domain.IdentityProvider,
	users domain.UserRepository,
	states cache.Store[time.Time],
	sealer *crypto.Sealer,
	logger logger.Logger,
) *OAuthService {
	return &OAuthService{
		provider: provider,
		users:    users,
		states:   states,
		sealer:   sealer,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *OAuthService) BeginLogin(ctx context.Context) (string, error) {
	state, err := crypto.RandomToken(32)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to generate OAuth state")
		return "", err
	}

	s.states.Set(state, s.now(), OAuthStateTTL)
	return s.provider.AuthCodeURL(state), nil
}

func (s *OAuthService) CompleteLogin(ctx context.Context, code, state string) (user *domain.User, err error) {
	ctx, span := tracing.StartServiceSpan(ctx, "OAuthService", "CompleteLogin")
	defer func() {
		tracing.RecordSignIn(ctx, err)
		tracing.EndSpan(span, err)
	}()

	if state == "" {
		return nil, domain.ErrOAuthState
	}
	if _, ok := s.states.Take(state); !ok {
		return nil, domain.ErrOAuthState
	}
	if code == "" {
		return nil, domain.NewValidationError("code is required")
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("OAuth code exchange failed")
		var exchangeErr *domain.ErrOAuthExchange
		if !errors.As(err, &exchangeErr) {
			err = &domain.ErrOAuthExchange{Err: err}
		}
		return nil, err
	}
	if !profile.EmailVerified {
		s.logger.WithField("user_id", profile.ID).Warn("Rejected sign-in with unverified email")
		return nil, &domain.ErrOAuthExchange{Err: errors.New("email address is not verified")}
	}

	now := s.now().UTC()
	candidate := &domain.User{
		ID:        profile.ID,
		Email:     strings.ToLower(profile.Email),
		Name:      profile.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if candidate.Name == "" {
		candidate.Name = candidate.Email
	}
	if profile.Picture != "" {
		picture := profile.Picture
		candidate.Picture = &picture
	}

	user, err = s.users.UpsertUser(ctx, candidate)
	if err != nil {
		s.logger.WithField("user_id", profile.ID).WithField("error", err.Error()).Error("Failed to upsert user")
		return nil, err
	}

	if profile.RefreshToken != "" {
		s.storeRefreshToken(ctx, user.ID, profile.RefreshToken)
	}

	return user, nil
}

// storeRefreshToken is best effort. Login does not depend on it.
func (s *OAuthService) storeRefreshToken(ctx context.Context, userID, refreshToken string) {
	sealed, err := s.sealer.Seal(refreshToken)
	if err != nil {
		s.logger.WithField("user_id", userID).WithField("error", err.Error()).Error("Failed to seal refresh token")
		return
	}
	if err := s.users.SetRefreshToken(ctx, userID, sealed); err != nil {
		s.logger.WithField("user_id", userID).WithField("error", err.Error()).Error("Failed to store refresh token")
	}
}
