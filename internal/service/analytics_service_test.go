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

func setupAnalyticsService(t *testing.T) (*AnalyticsService, *mocks.MockAnalyticsRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnalyticsRepository(ctrl)

	svc := NewAnalyticsService(repo, logger.NewTestLogger(t))
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func TestAnalyticsService_GetDashboard(t *testing.T) {
	svc, repo := setupAnalyticsService(t)

	ds := emptyDataset()
	ds.Contacts = []domain.ContactFact{
		{ID: "c1", FirstName: "Ada", LastName: "Lovelace", Status: domain.ContactStatusCustomer, CreatedAt: testNow.Add(-time.Hour)},
	}
	ds.Deals = []domain.DealFact{
		{ID: "d1", Title: "Pilot", Value: 2500, Stage: domain.DealStageClosedWon, ActualCloseDate: timePtr(testNow.Add(-2 * time.Hour)), CreatedAt: testNow.Add(-48 * time.Hour)},
	}
	ds.Tasks = []domain.TaskFact{
		{ID: "t1", Title: "Kickoff", Status: domain.TaskStatusCompleted, IsCompleted: true, CompletedAt: timePtr(testNow.Add(-30 * time.Minute))},
	}
	repo.EXPECT().LoadOwnerDataset(gomock.Any(), testOwner).Return(ds, nil)

	snap, err := svc.GetDashboard(context.Background(), testOwner)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.TotalContacts)
	assert.Equal(t, 1, snap.TotalDeals)
	assert.Equal(t, 1, snap.TotalTasks)
	assert.Equal(t, 100.0, snap.ConversionRate)
	assert.Equal(t, 1, snap.TasksCompletedThisWeek)
	assert.Equal(t, 1, snap.DealsClosedThisMonth)
	assert.Len(t, snap.RecentActivities, 3)
	assert.Equal(t, "t1", snap.RecentActivities[0].ID)
	assert.Equal(t, 2500.0, snap.MonthlyRevenue[int(time.June)-1].Revenue)
}

func TestAnalyticsService_GetDashboard_StoreFailure(t *testing.T) {
	svc, repo := setupAnalyticsService(t)
	repo.EXPECT().LoadOwnerDataset(gomock.Any(), testOwner).Return(nil, errors.New("connection refused"))

	snap, err := svc.GetDashboard(context.Background(), testOwner)
	assert.Nil(t, snap, "no partial snapshot")
	assert.EqualError(t, err, "failed to load analytics dataset: connection refused")
}

func TestAnalyticsService_GetDashboard_OwnersAreIsolated(t *testing.T) {
	svc, repo := setupAnalyticsService(t)

	busy := emptyDataset()
	busy.Contacts = []domain.ContactFact{{ID: "c1", Status: domain.ContactStatusLead}}
	repo.EXPECT().LoadOwnerDataset(gomock.Any(), "owner-a").Return(busy, nil)
	repo.EXPECT().LoadOwnerDataset(gomock.Any(), "owner-b").Return(emptyDataset(), nil)

	a, err := svc.GetDashboard(context.Background(), "owner-a")
	require.NoError(t, err)
	b, err := svc.GetDashboard(context.Background(), "owner-b")
	require.NoError(t, err)

	assert.Equal(t, 1, a.TotalContacts)
	assert.Zero(t, b.TotalContacts)
}
