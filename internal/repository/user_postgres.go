package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opencensus.io/trace"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/tracing"
)

type userRepository struct {
	systemDB *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{systemDB: db}
}

func (r *userRepository) UpsertUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "UserRepository", "UpsertUser")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("user.id", user.ID))

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	query := `
		INSERT INTO users (id, email, name, picture, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			picture = EXCLUDED.picture,
			updated_at = EXCLUDED.updated_at
		RETURNING id, email, name, picture, is_active, created_at, updated_at
	`
	var saved domain.User
	err := r.systemDB.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Picture,
		true,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	).Scan(
		&saved.ID,
		&saved.Email,
		&saved.Name,
		&saved.Picture,
		&saved.IsActive,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &saved, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "UserRepository", "GetUserByID")
	defer span.End()

	span.AddAttributes(trace.StringAttribute("user.id", id))

	var user domain.User
	query := `
		SELECT id, email, name, picture, is_active, refresh_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	startTime := time.Now()
	err := r.systemDB.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.IsActive,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	span.AddAttributes(trace.StringAttribute("db.query", "SELECT FROM users"),
		trace.Int64Attribute("db.query_duration_ms", time.Since(startTime).Milliseconds()))

	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeNotFound,
			Message: "user not found",
		})
		return nil, &domain.ErrNotFound{Entity: "user", ID: id}
	}
	if err != nil {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeUnknown,
			Message: fmt.Sprintf("failed to get user: %s", err.Error()),
		})
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, picture = $2, is_active = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.systemDB.ExecContext(ctx, query,
		user.Name,
		user.Picture,
		user.IsActive,
		user.UpdatedAt.UTC(),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "user", ID: user.ID}
	}
	return nil
}

func (r *userRepository) SetRefreshToken(ctx context.Context, userID, sealed string) error {
	query := `UPDATE users SET refresh_token = $1 WHERE id = $2`
	if _, err := r.systemDB.ExecContext(ctx, query, sealed, userID); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// DeleteUser removes owned rows first so nothing is left pointing at the user
func (r *userRepository) DeleteUser(ctx context.Context, id string) error {
	return withTransaction(ctx, r.systemDB, nil, func(tx *sql.Tx) error {
		for _, query := range []string{
			`DELETE FROM tasks WHERE owner_id = $1`,
			`DELETE FROM deals WHERE owner_id = $1`,
			`DELETE FROM contacts WHERE owner_id = $1`,
			`DELETE FROM user_sessions WHERE user_id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("failed to delete user data: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return &domain.ErrNotFound{Entity: "user", ID: id}
		}
		return nil
	})
}

func (r *userRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.ExpiresAt = session.ExpiresAt.UTC()

	query := `
		INSERT INTO user_sessions (id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *userRepository) GetSession(ctx context.Context, sessionID, userID string) (*domain.Session, error) {
	var session domain.Session
	query := `
		SELECT id, user_id, expires_at, created_at
		FROM user_sessions
		WHERE id = $1 AND user_id = $2
	`
	err := r.systemDB.QueryRowContext(ctx, query, sessionID, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "session", ID: sessionID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// DeleteSession is idempotent: a missing row is not an error
func (r *userRepository) DeleteSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM user_sessions WHERE id = $1`
	if _, err := r.systemDB.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
