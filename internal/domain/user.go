package domain

import (
	"context"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_user_repository.go -package mocks github.com/dealflow/crm/internal/domain UserRepository
//go:generate mockgen -destination mocks/mock_user_service.go -package mocks github.com/dealflow/crm/internal/domain UserService

type contextKey string

const (
	UserContextKey contextKey = "user"
	SessionIDKey   contextKey = "session_id"
)

// User is keyed by the identity provider's stable profile id
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   *string   `json:"picture"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// RefreshToken is sealed with pkg/crypto and never leaves the server
	RefreshToken *string `json:"-"`
}

// Session is a server-side login record referenced by the session token
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer usable at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// WithUser stores the authenticated user and its session id on the context
func WithUser(ctx context.Context, user *User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user)
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// UserFromContext returns the user stored by WithUser
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(UserContextKey).(*User)
	return user, ok && user != nil
}

// SessionIDFromContext returns the session id stored by WithUser
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

// UserPatch is the body of users.updateMe
type UserPatch struct {
	Name    *string
	Picture *NullableString
}

func UserPatchFromJSON(data []byte) (*UserPatch, error) {
	result, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	patch := &UserPatch{}
	if err := parseString(result, "name", &patch.Name); err != nil {
		return nil, err
	}
	if err := parseNullableString(result, "picture", &patch.Picture); err != nil {
		return nil, err
	}
	return patch, patch.Validate()
}

func (p *UserPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewValidationError("name cannot be empty")
	}
	if p.Picture != nil && !p.Picture.IsNull && !govalidator.IsURL(p.Picture.String) {
		return NewValidationError("picture must be a valid URL")
	}
	return nil
}

func (p *UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Picture == nil
}

// Apply returns a copy of u with the patch folded in
func (p *UserPatch) Apply(u User, now time.Time) User {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	applyNullable(&u.Picture, p.Picture)
	u.UpdatedAt = now
	return u
}

// UserRepository persists users and their sessions
type UserRepository interface {
	// UpsertUser inserts the user or refreshes email, name and picture of an existing one
	UpsertUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	SetRefreshToken(ctx context.Context, userID, sealed string) error

	// DeleteUser removes the user together with its sessions, tasks, deals and contacts
	DeleteUser(ctx context.Context, id string) error

	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID, userID string) (*Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// UserService backs the users.* endpoints
type UserService interface {
	UpdateMe(ctx context.Context, userID string, patch *UserPatch) (*User, error)
	DeleteMe(ctx context.Context, userID string) error
}
