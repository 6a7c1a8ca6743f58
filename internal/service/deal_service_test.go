package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/internal/domain/mocks"
	"github.com/dealflow/crm/pkg/logger"
)

type dealFixture struct {
	svc      *DealService
	repo     *mocks.MockDealRepository
	contacts *mocks.MockContactRepository
}

func setupDealService(t *testing.T) *dealFixture {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockDealRepository(ctrl)
	contacts := mocks.NewMockContactRepository(ctrl)

	svc := NewDealService(repo, contacts, logger.NewTestLogger(t))
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string { return testNewID }
	return &dealFixture{svc: svc, repo: repo, contacts: contacts}
}

func storedDeal(stage domain.DealStage) *domain.Deal {
	created := testNow.Add(-72 * time.Hour)
	return &domain.Deal{
		ID:          testDealID,
		OwnerID:     testOwner,
		Title:       "Enterprise licence",
		Value:       50000,
		Currency:    "USD",
		Stage:       stage,
		Probability: 40,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestDealService_ListDeals(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := setupDealService(t)
		filter := domain.DealFilter{ListParams: domain.ListParams{Limit: 100}, ContactID: strPtr(testContactID)}
		f.repo.EXPECT().ListDeals(gomock.Any(), testOwner, filter).Return([]*domain.Deal{}, nil)

		deals, err := f.svc.ListDeals(context.Background(), testOwner, filter)
		require.NoError(t, err)
		assert.Empty(t, deals)
	})

	t.Run("malformed contact filter", func(t *testing.T) {
		f := setupDealService(t)

		_, err := f.svc.ListDeals(context.Background(), testOwner, domain.DealFilter{
			ListParams: domain.ListParams{Limit: 100},
			ContactID:  strPtr("nope"),
		})
		var validation domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestDealService_CreateDeal(t *testing.T) {
	t.Run("defaults and contact check", func(t *testing.T) {
		f := setupDealService(t)
		patch, err := domain.DealPatchFromJSON([]byte(`{"title":"Renewal","value":1200,"contact_id":"` + testContactID + `"}`))
		require.NoError(t, err)

		f.contacts.EXPECT().ContactExists(gomock.Any(), testOwner, testContactID).Return(true, nil)
		f.repo.EXPECT().CreateDeal(gomock.Any(), gomock.Any()).Return(nil)

		deal, err := f.svc.CreateDeal(context.Background(), testOwner, patch)
		require.NoError(t, err)
		assert.Equal(t, domain.DealStageLead, deal.Stage)
		assert.Equal(t, "USD", deal.Currency)
		assert.Equal(t, domain.DefaultDealProbability, deal.Probability)
		assert.Nil(t, deal.ActualCloseDate)
	})

	t.Run("created closed is stamped", func(t *testing.T) {
		f := setupDealService(t)
		stage := domain.DealStageClosedWon
		f.repo.EXPECT().CreateDeal(gomock.Any(), gomock.Any()).Return(nil)

		deal, err := f.svc.CreateDeal(context.Background(), testOwner, &domain.DealPatch{
			Title: strPtr("Signed"),
			Stage: &stage,
		})
		require.NoError(t, err)
		require.NotNil(t, deal.ActualCloseDate)
		assert.Equal(t, testNow, *deal.ActualCloseDate)
	})

	t.Run("foreign contact", func(t *testing.T) {
		f := setupDealService(t)
		f.contacts.EXPECT().ContactExists(gomock.Any(), testOwner, testContactID).Return(false, nil)

		_, err := f.svc.CreateDeal(context.Background(), testOwner, &domain.DealPatch{
			Title:     strPtr("Renewal"),
			ContactID: &domain.NullableString{String: testContactID},
		})
		var validation domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("probability out of range", func(t *testing.T) {
		f := setupDealService(t)
		p := 140

		_, err := f.svc.CreateDeal(context.Background(), testOwner, &domain.DealPatch{
			Title:       strPtr("Renewal"),
			Probability: &p,
		})
		var validation domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestDealService_UpdateDeal_CloseDateIsStampedOnce(t *testing.T) {
	f := setupDealService(t)
	lost := domain.DealStageClosedLost
	won := domain.DealStageClosedWon

	f.repo.EXPECT().GetDeal(gomock.Any(), testOwner, testDealID).Return(storedDeal(domain.DealStageProposal), nil)
	f.repo.EXPECT().UpdateDeal(gomock.Any(), gomock.Any()).Return(nil)

	closed, err := f.svc.UpdateDeal(context.Background(), testOwner, testDealID, &domain.DealPatch{Stage: &lost})
	require.NoError(t, err)
	require.NotNil(t, closed.ActualCloseDate)
	assert.Equal(t, testNow, *closed.ActualCloseDate)

	later := testNow.Add(24 * time.Hour)
	f.svc.now = func() time.Time { return later }
	f.repo.EXPECT().GetDeal(gomock.Any(), testOwner, testDealID).Return(closed, nil)
	f.repo.EXPECT().UpdateDeal(gomock.Any(), gomock.Any()).Return(nil)

	reopened, err := f.svc.UpdateDeal(context.Background(), testOwner, testDealID, &domain.DealPatch{Stage: &won})
	require.NoError(t, err)
	assert.Equal(t, domain.DealStageClosedWon, reopened.Stage)
	assert.Equal(t, testNow, *reopened.ActualCloseDate, "close date is not re-stamped")
	assert.Equal(t, later, reopened.UpdatedAt)
}

func TestDealService_UpdateDeal_ContactReference(t *testing.T) {
	t.Run("clearing the contact skips the check", func(t *testing.T) {
		f := setupDealService(t)
		existing := storedDeal(domain.DealStageLead)
		existing.ContactID = strPtr(testContactID)

		f.repo.EXPECT().GetDeal(gomock.Any(), testOwner, testDealID).Return(existing, nil)
		f.repo.EXPECT().UpdateDeal(gomock.Any(), gomock.Any()).Return(nil)

		deal, err := f.svc.UpdateDeal(context.Background(), testOwner, testDealID, &domain.DealPatch{
			ContactID: &domain.NullableString{IsNull: true},
		})
		require.NoError(t, err)
		assert.Nil(t, deal.ContactID)
	})

	t.Run("new contact is checked", func(t *testing.T) {
		f := setupDealService(t)
		f.repo.EXPECT().GetDeal(gomock.Any(), testOwner, testDealID).Return(storedDeal(domain.DealStageLead), nil)
		f.contacts.EXPECT().ContactExists(gomock.Any(), testOwner, testContactID).Return(false, errors.New("db down"))

		_, err := f.svc.UpdateDeal(context.Background(), testOwner, testDealID, &domain.DealPatch{
			ContactID: &domain.NullableString{String: testContactID},
		})
		assert.EqualError(t, err, "failed to check deal contact: db down")
	})
}

func TestDealService_DeleteDeal(t *testing.T) {
	f := setupDealService(t)
	f.repo.EXPECT().DeleteDeal(gomock.Any(), testOwner, testDealID).
		Return(&domain.ErrNotFound{Entity: "deal", ID: testDealID})

	err := f.svc.DeleteDeal(context.Background(), testOwner, testDealID)
	var notFound *domain.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}
