package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
	"github.com/dealflow/crm/pkg/tracing"
)

type analyticsRepository struct {
	db     *sql.DB
	logger logger.Logger
}

// NewAnalyticsRepository creates a new PostgreSQL analytics repository
func NewAnalyticsRepository(db *sql.DB, logger logger.Logger) domain.AnalyticsRepository {
	return &analyticsRepository{
		db:     db,
		logger: logger,
	}
}

// LoadOwnerDataset reads the owner's contacts, deals and tasks from a single
// snapshot so every figure on the dashboard agrees with the others.
func (r *analyticsRepository) LoadOwnerDataset(ctx context.Context, ownerID string) (*domain.OwnerDataset, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "AnalyticsRepository", "LoadOwnerDataset")
	defer span.End()
	tracing.AddAttribute(ctx, "owner_id", ownerID)

	dataset := &domain.OwnerDataset{
		Contacts: make([]domain.ContactFact, 0),
		Deals:    make([]domain.DealFact, 0),
		Tasks:    make([]domain.TaskFact, 0),
	}

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := withTransaction(ctx, r.db, opts, func(tx *sql.Tx) error {
		if err := r.loadContacts(ctx, tx, ownerID, dataset); err != nil {
			return err
		}
		if err := r.loadDeals(ctx, tx, ownerID, dataset); err != nil {
			return err
		}
		return r.loadTasks(ctx, tx, ownerID, dataset)
	})
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		r.logger.WithField("owner_id", ownerID).WithField("error", err.Error()).Error("Failed to load analytics dataset")
		return nil, err
	}

	tracing.AddAttribute(ctx, "contacts.count", len(dataset.Contacts))
	tracing.AddAttribute(ctx, "deals.count", len(dataset.Deals))
	tracing.AddAttribute(ctx, "tasks.count", len(dataset.Tasks))
	return dataset, nil
}

func (r *analyticsRepository) loadContacts(ctx context.Context, tx *sql.Tx, ownerID string, dataset *domain.OwnerDataset) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, first_name, last_name, status, created_at FROM contacts WHERE owner_id = $1`,
		ownerID)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.ContactFact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Status, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan contact: %w", err)
		}
		dataset.Contacts = append(dataset.Contacts, c)
	}
	return rows.Err()
}

func (r *analyticsRepository) loadDeals(ctx context.Context, tx *sql.Tx, ownerID string, dataset *domain.OwnerDataset) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, title, value, stage, actual_close_date, created_at FROM deals WHERE owner_id = $1`,
		ownerID)
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.DealFact
		if err := rows.Scan(&d.ID, &d.Title, &d.Value, &d.Stage, &d.ActualCloseDate, &d.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan deal: %w", err)
		}
		dataset.Deals = append(dataset.Deals, d)
	}
	return rows.Err()
}

func (r *analyticsRepository) loadTasks(ctx context.Context, tx *sql.Tx, ownerID string, dataset *domain.OwnerDataset) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, title, status, is_completed, completed_at, updated_at FROM tasks WHERE owner_id = $1`,
		ownerID)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.TaskFact
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.IsCompleted, &t.CompletedAt, &t.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan task: %w", err)
		}
		dataset.Tasks = append(dataset.Tasks, t)
	}
	return rows.Err()
}
