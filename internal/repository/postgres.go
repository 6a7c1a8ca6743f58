package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dealflow/crm/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// withTransaction runs fn in a transaction and commits when fn succeeds.
// The deferred Rollback is a no-op after a successful commit.
func withTransaction(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// likeEscaper escapes LIKE metacharacters. Backslash is the default LIKE
// escape in Postgres.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// searchPattern wraps term for a case-insensitive substring match. The term
// is matched literally.
func searchPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// execReferencingContact runs a deal or task write. When contactID is set the
// contact row is share locked in the same transaction, so DeleteContact
// either waits and then cascades to the new row, or commits first and the
// write is rejected with a validation error.
func execReferencingContact(ctx context.Context, db *sql.DB, ownerID string, contactID *string, action, query string, args []interface{}) (sql.Result, error) {
	if contactID == nil {
		result, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", action, err)
		}
		return result, nil
	}

	var result sql.Result
	err := withTransaction(ctx, db, nil, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM contacts WHERE id = $1 AND owner_id = $2 FOR SHARE`,
			*contactID, ownerID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewValidationError(fmt.Sprintf("contact %s does not exist", *contactID))
		}
		if err != nil {
			return fmt.Errorf("failed to lock contact: %w", err)
		}

		result, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to %s: %w", action, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func paginate(b sq.SelectBuilder, skip, limit int) sq.SelectBuilder {
	b = b.Limit(uint64(limit))
	if skip > 0 {
		b = b.Offset(uint64(skip))
	}
	return b
}
