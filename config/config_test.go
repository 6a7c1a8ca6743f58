package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Valid PASETO keys generated with the keygen tool
const (
	testPrivateKey = "8OSonZEkrCTlDd612EBoORCKVMZ4OjbWlrq03n0FIEgEJK+qb95F4pwewi+Dd++qOjQ9zkviUjFdIaBUz3nzgA=="
	testPublicKey  = "BCSvqm/eReKcHsIvg3fvqjo0Pc5L4lIxXSGgVM9584A="
)

func TestIsDevelopment(t *testing.T) {
	assert.True(t, (&Config{Environment: "development"}).IsDevelopment())
	assert.False(t, (&Config{Environment: "production"}).IsDevelopment())
	assert.False(t, (&Config{Environment: "staging"}).IsDevelopment())
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: "production"}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
}

func TestLoadWithOptions(t *testing.T) {
	t.Setenv("PASETO_PRIVATE_KEY", testPrivateKey)
	t.Setenv("PASETO_PUBLIC_KEY", testPublicKey)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("DB_HOST", "testhost")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "crm_test")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SECRET_KEY", "test-key")
	t.Setenv("API_ENDPOINT", "https://api.example.com/")
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, "testhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "testpass", cfg.Database.Password)
	assert.Equal(t, "crm_test", cfg.Database.DBName)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "test-key", cfg.Security.SecretKey)

	expectedPrivate, _ := base64.StdEncoding.DecodeString(testPrivateKey)
	expectedPublic, _ := base64.StdEncoding.DecodeString(testPublicKey)
	assert.Equal(t, expectedPrivate, cfg.Security.PasetoPrivateKeyBytes)
	assert.Equal(t, expectedPublic, cfg.Security.PasetoPublicKeyBytes)

	// Trailing slash is trimmed before deriving the callback URL
	assert.Equal(t, "https://api.example.com", cfg.APIEndpoint)
	assert.Equal(t, "https://api.example.com/api/auth.googleCallback", cfg.OAuth.GoogleRedirectURL)
	assert.Equal(t, "client-id", cfg.OAuth.GoogleClientID)
	assert.Equal(t, "client-secret", cfg.OAuth.GoogleClientSecret)

	// CORS origin falls back to the frontend URL
	assert.Equal(t, "https://app.example.com", cfg.CORSOrigin)

	assert.Equal(t, "crm_session", cfg.Session.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 20, cfg.RateLimit.AuthMaxAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimit.AuthWindow)
	assert.Equal(t, VERSION, cfg.Version)
}

func TestLoadWithOptions_ExplicitOverrides(t *testing.T) {
	t.Setenv("PASETO_PRIVATE_KEY", testPrivateKey)
	t.Setenv("PASETO_PUBLIC_KEY", testPublicKey)
	t.Setenv("GOOGLE_REDIRECT_URL", "https://auth.example.com/callback")
	t.Setenv("CORS_ALLOW_ORIGIN", "https://other.example.com")
	t.Setenv("SESSION_MAX_AGE", "24h")
	t.Setenv("SESSION_COOKIE_NAME", "custom_session")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,192.0.2.1")

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com/callback", cfg.OAuth.GoogleRedirectURL)
	assert.Equal(t, "https://other.example.com", cfg.CORSOrigin)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, "custom_session", cfg.Session.CookieName)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Server.TrustedProxies)
	// SECRET_KEY falls back to the private key
	assert.Equal(t, testPrivateKey, cfg.Security.SecretKey)
}

func TestLoadWithOptions_MissingKeys(t *testing.T) {
	t.Run("missing private key", func(t *testing.T) {
		t.Setenv("PASETO_PRIVATE_KEY", "")
		t.Setenv("PASETO_PUBLIC_KEY", testPublicKey)

		_, err := LoadWithOptions(LoadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PASETO_PRIVATE_KEY is required")
	})

	t.Run("missing public key", func(t *testing.T) {
		t.Setenv("PASETO_PRIVATE_KEY", testPrivateKey)
		t.Setenv("PASETO_PUBLIC_KEY", "")

		_, err := LoadWithOptions(LoadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PASETO_PUBLIC_KEY is required")
	})

	t.Run("invalid base64", func(t *testing.T) {
		t.Setenv("PASETO_PRIVATE_KEY", "not-base64!!")
		t.Setenv("PASETO_PUBLIC_KEY", testPublicKey)

		_, err := LoadWithOptions(LoadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error decoding PASETO_PRIVATE_KEY")
	})
}
