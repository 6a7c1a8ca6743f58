package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dealflow/crm/config"
	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/tracing"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	// userinfo responses are a few hundred bytes
	maxUserInfoBytes = 1 << 20
)

var googleScopes = []string{"openid", "email", "profile"}

// GoogleProvider implements domain.IdentityProvider on Google's OAuth 2.0 endpoints
type GoogleProvider struct {
	oauth       *oauth2.Config
	client      *http.Client
	userInfoURL string
}

// NewGoogleProvider builds a provider whose outbound calls go through a traced client
func NewGoogleProvider(cfg config.OAuthConfig, client *http.Client) *GoogleProvider {
	return newGoogleProvider(cfg, tracing.WrapHTTPClient(client), google.Endpoint, googleUserInfoURL)
}

func newGoogleProvider(cfg config.OAuthConfig, client *http.Client, endpoint oauth2.Endpoint, userInfoURL string) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       googleScopes,
			Endpoint:     endpoint,
		},
		client:      client,
		userInfoURL: userInfoURL,
	}
}

// AuthCodeURL asks for offline access and forces the consent screen so a
// refresh token is returned on every login.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange redeems code and fetches the user's profile
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "GoogleProvider", "Exchange")
	defer span.End()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, &domain.ErrOAuthExchange{Err: fmt.Errorf("token exchange: %w", err)}
	}

	profile, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, &domain.ErrOAuthExchange{Err: err}
	}

	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		if err := checkIDToken(raw, profile); err != nil {
			tracing.MarkSpanError(ctx, err)
			return nil, &domain.ErrOAuthExchange{Err: err}
		}
	}

	profile.RefreshToken = token.RefreshToken
	return profile, nil
}

func (p *GoogleProvider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*domain.OAuthProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, fmt.Errorf("userinfo read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("userinfo returned invalid JSON")
	}

	info := gjson.ParseBytes(body)
	profile := &domain.OAuthProfile{
		ID:            info.Get("id").String(),
		Email:         info.Get("email").String(),
		EmailVerified: info.Get("verified_email").Bool(),
		Name:          info.Get("name").String(),
		Picture:       info.Get("picture").String(),
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, errors.New("userinfo is missing id or email")
	}
	return profile, nil
}

// checkIDToken cross-checks the id_token subject against userinfo. The token
// came straight from the token endpoint over TLS, so the signature is not
// verified again here.
func checkIDToken(raw string, profile *domain.OAuthProfile) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return fmt.Errorf("id_token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub != profile.ID {
		return errors.New("id_token subject does not match userinfo")
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		profile.EmailVerified = profile.EmailVerified || verified
	}
	return nil
}
