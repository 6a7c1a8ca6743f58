package mocks_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/internal/domain/mocks"
	"github.com/dealflow/crm/pkg/logger"
)

var (
	_ domain.AnalyticsRepository = (*mocks.MockAnalyticsRepository)(nil)
	_ domain.AnalyticsService    = (*mocks.MockAnalyticsService)(nil)
	_ domain.AuthService         = (*mocks.MockAuthService)(nil)
	_ domain.ContactRepository   = (*mocks.MockContactRepository)(nil)
	_ domain.ContactService      = (*mocks.MockContactService)(nil)
	_ domain.DealRepository      = (*mocks.MockDealRepository)(nil)
	_ domain.DealService         = (*mocks.MockDealService)(nil)
	_ domain.DemoService         = (*mocks.MockDemoService)(nil)
	_ domain.IdentityProvider    = (*mocks.MockIdentityProvider)(nil)
	_ domain.OAuthService        = (*mocks.MockOAuthService)(nil)
	_ domain.SeedRepository      = (*mocks.MockSeedRepository)(nil)
	_ domain.TaskRepository      = (*mocks.MockTaskRepository)(nil)
	_ domain.TaskService         = (*mocks.MockTaskService)(nil)
	_ domain.UserRepository      = (*mocks.MockUserRepository)(nil)
	_ domain.UserService         = (*mocks.MockUserService)(nil)
	_ logger.Logger              = (*mocks.MockLogger)(nil)
)

func TestMockDemoService_Seed(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockDemoService(ctrl)
	m.EXPECT().Seed(gomock.Any(), "google-123").Return(true, nil)

	var svc domain.DemoService = m
	seeded, err := svc.Seed(context.Background(), "google-123")

	assert.NoError(t, err)
	assert.True(t, seeded)
}
