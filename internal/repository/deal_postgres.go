package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dealflow/crm/internal/domain"
)

var dealColumns = []string{
	"id", "owner_id", "contact_id", "title", "value", "currency", "stage",
	"probability", "expected_close_date", "actual_close_date", "notes",
	"created_at", "updated_at",
}

type dealRepository struct {
	db *sql.DB
}

// NewDealRepository creates a new PostgreSQL deal repository
func NewDealRepository(db *sql.DB) domain.DealRepository {
	return &dealRepository{db: db}
}

func scanDeal(row scanner) (*domain.Deal, error) {
	var d domain.Deal
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.ContactID, &d.Title, &d.Value, &d.Currency, &d.Stage,
		&d.Probability, &d.ExpectedCloseDate, &d.ActualCloseDate, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dealRepository) CreateDeal(ctx context.Context, d *domain.Deal) error {
	query, args, err := psql.Insert("deals").
		Columns(dealColumns...).
		Values(
			d.ID, d.OwnerID, d.ContactID, d.Title, d.Value, d.Currency, d.Stage,
			d.Probability, utcPtr(d.ExpectedCloseDate), utcPtr(d.ActualCloseDate), d.Notes,
			d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	_, err = execReferencingContact(ctx, r.db, d.OwnerID, d.ContactID, "create deal", query, args)
	return err
}

func (r *dealRepository) GetDeal(ctx context.Context, ownerID, id string) (*domain.Deal, error) {
	query, args, err := psql.Select(dealColumns...).
		From("deals").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	deal, err := scanDeal(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "deal", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return deal, nil
}

func (r *dealRepository) ListDeals(ctx context.Context, ownerID string, filter domain.DealFilter) ([]*domain.Deal, error) {
	builder := psql.Select(dealColumns...).
		From("deals").
		Where(sq.Eq{"owner_id": ownerID})

	if filter.Stage != nil {
		builder = builder.Where(sq.Eq{"stage": string(*filter.Stage)})
	}
	if filter.ContactID != nil {
		builder = builder.Where(sq.Eq{"contact_id": *filter.ContactID})
	}
	if filter.Search != "" {
		builder = builder.Where(sq.ILike{"title": searchPattern(filter.Search)})
	}

	builder = paginate(builder.OrderBy("created_at DESC", "id"), filter.Skip, filter.Limit)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	deals := make([]*domain.Deal, 0)
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deal rows: %w", err)
	}
	return deals, nil
}

func (r *dealRepository) UpdateDeal(ctx context.Context, d *domain.Deal) error {
	query, args, err := psql.Update("deals").
		SetMap(map[string]interface{}{
			"contact_id":          d.ContactID,
			"title":               d.Title,
			"value":               d.Value,
			"currency":            d.Currency,
			"stage":               d.Stage,
			"probability":         d.Probability,
			"expected_close_date": utcPtr(d.ExpectedCloseDate),
			"actual_close_date":   utcPtr(d.ActualCloseDate),
			"notes":               d.Notes,
			"updated_at":          d.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": d.ID, "owner_id": d.OwnerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := execReferencingContact(ctx, r.db, d.OwnerID, d.ContactID, "update deal", query, args)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "deal", ID: d.ID}
	}
	return nil
}

func (r *dealRepository) DeleteDeal(ctx context.Context, ownerID, id string) error {
	query, args, err := psql.Delete("deals").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "deal", ID: id}
	}
	return nil
}
