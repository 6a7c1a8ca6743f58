package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/internal/repository/testutil"
)

const dealID = "0b7e6a52-3c1d-4f7e-8a9b-112233445566"

func dealFixture() *domain.Deal {
	closed := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	contact := contactID
	return &domain.Deal{
		ID:              dealID,
		OwnerID:         ownerID,
		ContactID:       &contact,
		Title:           "Difference engine",
		Value:           25000,
		Currency:        "USD",
		Stage:           domain.DealStageClosedWon,
		Probability:     100,
		ActualCloseDate: &closed,
		CreatedAt:       fixtureTime,
		UpdatedAt:       fixtureTime,
	}
}

func dealRow(rows *sqlmock.Rows, d *domain.Deal) *sqlmock.Rows {
	return rows.AddRow(
		d.ID, d.OwnerID, testutil.Deref(d.ContactID), d.Title, d.Value, d.Currency, string(d.Stage),
		d.Probability, testutil.Deref(d.ExpectedCloseDate), testutil.Deref(d.ActualCloseDate), testutil.Deref(d.Notes),
		d.CreatedAt, d.UpdatedAt,
	)
}

func TestDealRepository_CreateDeal(t *testing.T) {
	db, mock := testutil.NewStrictMockDB(t)
	repo := NewDealRepository(db)
	d := dealFixture()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM contacts WHERE id = \$1 AND owner_id = \$2 FOR SHARE`).
		WithArgs(contactID, ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO deals \(id,owner_id,contact_id,title,value,currency,stage,probability,expected_close_date,actual_close_date,notes,created_at,updated_at\) VALUES`).
		WithArgs(dealID, ownerID, contactID, "Difference engine", 25000.0, "USD", "closed_won",
			int64(100), nil, *d.ActualCloseDate, nil, fixtureTime, fixtureTime).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateDeal(context.Background(), d))

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR SHARE`).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO deals`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()
	assert.ErrorContains(t, repo.CreateDeal(context.Background(), d), "failed to create deal")
}

func TestDealRepository_CreateDeal_ContactDeletedConcurrently(t *testing.T) {
	db, mock := testutil.NewStrictMockDB(t)
	repo := NewDealRepository(db)

	// the contact row is gone by the time the lock is taken
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM contacts WHERE id = \$1 AND owner_id = \$2 FOR SHARE`).
		WithArgs(contactID, ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	err := repo.CreateDeal(context.Background(), dealFixture())
	var validation domain.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Contains(t, validation.Message, contactID)
}

func TestDealRepository_CreateDeal_WithoutContact(t *testing.T) {
	db, mock := testutil.NewStrictMockDB(t)
	repo := NewDealRepository(db)
	d := dealFixture()
	d.ContactID = nil

	mock.ExpectExec(`INSERT INTO deals`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateDeal(context.Background(), d))
}

func TestDealRepository_GetDeal(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := testutil.NewStrictMockDB(t)
		repo := NewDealRepository(db)
		expected := dealFixture()

		mock.ExpectQuery(`SELECT (.+) FROM deals WHERE id = \$1 AND owner_id = \$2`).
			WithArgs(dealID, ownerID).
			WillReturnRows(dealRow(sqlmock.NewRows(dealColumns), expected))

		deal, err := repo.GetDeal(context.Background(), ownerID, dealID)
		require.NoError(t, err)
		assert.Equal(t, expected, deal)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := testutil.NewStrictMockDB(t)
		repo := NewDealRepository(db)

		mock.ExpectQuery(`FROM deals`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetDeal(context.Background(), ownerID, dealID)
		var nf *domain.ErrNotFound
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "deal", nf.Entity)
	})
}

func TestDealRepository_ListDeals(t *testing.T) {
	t.Run("all filters", func(t *testing.T) {
		db, mock := testutil.NewStrictMockDB(t)
		repo := NewDealRepository(db)

		stage := domain.DealStageNegotiation
		contact := contactID
		filter := domain.DealFilter{
			ListParams: domain.ListParams{Skip: 5, Limit: 20, Search: "engine"},
			Stage:      &stage,
			ContactID:  &contact,
		}

		mock.ExpectQuery(`SELECT (.+) FROM deals WHERE owner_id = \$1 AND stage = \$2 AND contact_id = \$3 AND title ILIKE \$4 ORDER BY created_at DESC, id LIMIT 20 OFFSET 5`).
			WithArgs(ownerID, "negotiation", contactID, "%engine%").
			WillReturnRows(dealRow(sqlmock.NewRows(dealColumns), dealFixture()))

		deals, err := repo.ListDeals(context.Background(), ownerID, filter)
		require.NoError(t, err)
		require.Len(t, deals, 1)
		assert.Equal(t, 25000.0, deals[0].Value)
	})

	t.Run("scan error", func(t *testing.T) {
		db, mock := testutil.NewStrictMockDB(t)
		repo := NewDealRepository(db)

		mock.ExpectQuery(`FROM deals`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(dealID))

		_, err := repo.ListDeals(context.Background(), ownerID, domain.DealFilter{ListParams: domain.ListParams{Limit: 10}})
		assert.ErrorContains(t, err, "failed to scan deal")
	})
}

func TestDealRepository_UpdateDeal(t *testing.T) {
	d := dealFixture()

	t.Run("success", func(t *testing.T) {
		db, mock := testutil.NewStrictMockDB(t)
		repo := NewDealRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT 1 FROM contacts WHERE id = \$1 AND owner_id = \$2 FOR SHARE`).
			WithArgs(contactID, ownerID).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectExec(`UPDATE deals SET actual_close_date = \$1, contact_id = \$2, currency = \$3, expected_close_date = \$4, notes = \$5, probability = \$6, stage = \$7, title = \$8, updated_at = \$9, value = \$10 WHERE id = \$11 AND owner_id = \$12`).
			WithArgs(*d.ActualCloseDate, contactID, "USD", nil, nil, int64(100), "closed_won", "Difference engine", fixtureTime, 25000.0, dealID, ownerID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.UpdateDeal(context.Background(), d))
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := testutil.NewStrictMockDB(t)
		repo := NewDealRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR SHARE`).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectExec(`UPDATE deals`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		assert.IsType(t, &domain.ErrNotFound{}, repo.UpdateDeal(context.Background(), d))
	})

	t.Run("contact deleted concurrently", func(t *testing.T) {
		db, mock := testutil.NewStrictMockDB(t)
		repo := NewDealRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR SHARE`).WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
		mock.ExpectRollback()

		var validation domain.ValidationError
		assert.True(t, errors.As(repo.UpdateDeal(context.Background(), d), &validation))
	})
}

func TestDealRepository_DeleteDeal(t *testing.T) {
	db, mock := testutil.NewStrictMockDB(t)
	repo := NewDealRepository(db)

	mock.ExpectExec(`DELETE FROM deals WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(dealID, ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteDeal(context.Background(), ownerID, dealID))

	mock.ExpectExec(`DELETE FROM deals`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.IsType(t, &domain.ErrNotFound{}, repo.DeleteDeal(context.Background(), ownerID, dealID))
}
