package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dealflow/crm/internal/domain"
)

type seedRepository struct {
	db *sql.DB
}

// NewSeedRepository creates the repository behind demo.seed
func NewSeedRepository(db *sql.DB) domain.SeedRepository {
	return &seedRepository{db: db}
}

// SeedIfEmpty takes a per-owner advisory lock so concurrent seeds of the
// same owner cannot both pass the emptiness check.
func (r *seedRepository) SeedIfEmpty(ctx context.Context, ownerID string, data *domain.DemoData) (bool, error) {
	seeded := false

	err := withTransaction(ctx, r.db, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
			return fmt.Errorf("failed to lock owner: %w", err)
		}

		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM contacts WHERE owner_id = $1)`,
			ownerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check existing contacts: %w", err)
		}
		if exists {
			return nil
		}

		if err := insertContacts(ctx, tx, data.Contacts); err != nil {
			return err
		}
		if err := insertDeals(ctx, tx, data.Deals); err != nil {
			return err
		}
		if err := insertTasks(ctx, tx, data.Tasks); err != nil {
			return err
		}

		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

func insertContacts(ctx context.Context, tx *sql.Tx, contacts []*domain.Contact) error {
	if len(contacts) == 0 {
		return nil
	}

	builder := psql.Insert("contacts").Columns(contactColumns...)
	for _, c := range contacts {
		builder = builder.Values(
			c.ID, c.OwnerID, c.FirstName, c.LastName, c.Email, c.Phone, c.Company,
			c.JobTitle, c.Address, c.City, c.Country, c.Status, c.Source, c.Notes,
			c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert demo contacts: %w", err)
	}
	return nil
}

func insertDeals(ctx context.Context, tx *sql.Tx, deals []*domain.Deal) error {
	if len(deals) == 0 {
		return nil
	}

	builder := psql.Insert("deals").Columns(dealColumns...)
	for _, d := range deals {
		builder = builder.Values(
			d.ID, d.OwnerID, d.ContactID, d.Title, d.Value, d.Currency, d.Stage,
			d.Probability, utcPtr(d.ExpectedCloseDate), utcPtr(d.ActualCloseDate), d.Notes,
			d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert demo deals: %w", err)
	}
	return nil
}

func insertTasks(ctx context.Context, tx *sql.Tx, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	builder := psql.Insert("tasks").Columns(taskColumns...)
	for _, t := range tasks {
		builder = builder.Values(
			t.ID, t.OwnerID, t.ContactID, t.Title, t.Description, t.TaskType,
			t.Priority, t.Status, t.IsCompleted, utcPtr(t.DueDate), utcPtr(t.CompletedAt),
			t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert demo tasks: %w", err)
	}
	return nil
}
