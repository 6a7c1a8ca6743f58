package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/tracing"
)

var contactColumns = []string{
	"id", "owner_id", "first_name", "last_name", "email", "phone", "company",
	"job_title", "address", "city", "country", "status", "source", "notes",
	"created_at", "updated_at",
}

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new PostgreSQL contact repository
func NewContactRepository(db *sql.DB) domain.ContactRepository {
	return &contactRepository{db: db}
}

func scanContact(row scanner) (*domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company,
		&c.JobTitle, &c.Address, &c.City, &c.Country, &c.Status, &c.Source, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contactRepository) CreateContact(ctx context.Context, c *domain.Contact) error {
	query, args, err := psql.Insert("contacts").
		Columns(contactColumns...).
		Values(
			c.ID, c.OwnerID, c.FirstName, c.LastName, c.Email, c.Phone, c.Company,
			c.JobTitle, c.Address, c.City, c.Country, c.Status, c.Source, c.Notes,
			c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) GetContact(ctx context.Context, ownerID, id string) (*domain.Contact, error) {
	query, args, err := psql.Select(contactColumns...).
		From("contacts").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "contact", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

func (r *contactRepository) ListContacts(ctx context.Context, ownerID string, filter domain.ContactFilter) ([]*domain.Contact, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ContactRepository", "ListContacts")
	defer span.End()

	builder := psql.Select(contactColumns...).
		From("contacts").
		Where(sq.Eq{"owner_id": ownerID})

	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		builder = builder.Where(sq.Or{
			sq.ILike{"first_name": pattern},
			sq.ILike{"last_name": pattern},
			sq.ILike{"email": pattern},
			sq.ILike{"company": pattern},
		})
	}

	builder = paginate(builder.OrderBy("created_at DESC", "id"), filter.Skip, filter.Limit)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact rows: %w", err)
	}

	tracing.AddAttribute(ctx, "contacts.count", len(contacts))
	return contacts, nil
}

func (r *contactRepository) UpdateContact(ctx context.Context, c *domain.Contact) error {
	query, args, err := psql.Update("contacts").
		SetMap(map[string]interface{}{
			"first_name": c.FirstName,
			"last_name":  c.LastName,
			"email":      c.Email,
			"phone":      c.Phone,
			"company":    c.Company,
			"job_title":  c.JobTitle,
			"address":    c.Address,
			"city":       c.City,
			"country":    c.Country,
			"status":     c.Status,
			"source":     c.Source,
			"notes":      c.Notes,
			"updated_at": c.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": c.ID, "owner_id": c.OwnerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "contact", ID: c.ID}
	}
	return nil
}

// DeleteContact removes the contact together with its deals and tasks. The
// contact row goes first so its lock orders the cascade after any deal or
// task write holding the contact in execReferencingContact.
func (r *contactRepository) DeleteContact(ctx context.Context, ownerID, id string) error {
	return withTransaction(ctx, r.db, nil, func(tx *sql.Tx) error {
		query, args, err := psql.Delete("contacts").
			Where(sq.Eq{"id": id, "owner_id": ownerID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete contact: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return &domain.ErrNotFound{Entity: "contact", ID: id}
		}

		for _, table := range []string{"tasks", "deals"} {
			query, args, err := psql.Delete(table).
				Where(sq.Eq{"contact_id": id, "owner_id": ownerID}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to delete contact %s: %w", table, err)
			}
		}
		return nil
	})
}

func (r *contactRepository) ContactExists(ctx context.Context, ownerID, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM contacts WHERE id = $1 AND owner_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check contact: %w", err)
	}
	return exists, nil
}
