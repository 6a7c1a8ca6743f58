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

const (
	testOwner     = "google-123"
	testContactID = "7b0b6c52-3f0e-4a8e-9a55-0d1f3c1b2a10"
	testDealID    = "0e8e1f44-8a51-4d6f-a2f3-5a4bb1d0c9e2"
	testTaskID    = "5f2c9d7a-1b3e-4c8d-9e0f-6a7b8c9d0e1f"
	testNewID     = "11111111-2222-4333-8444-555555555555"
)

var testNow = time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestIsClientError(t *testing.T) {
	assert.True(t, isClientError(&domain.ErrNotFound{Entity: "contact", ID: "x"}))
	assert.True(t, isClientError(domain.NewValidationError("bad")))
	assert.False(t, isClientError(errors.New("connection reset")))
}

func TestLogFailure(t *testing.T) {
	log := logger.NewTestLogger(t)

	notFound := &domain.ErrNotFound{Entity: "deal", ID: "x"}
	assert.Same(t, notFound, logFailure(log, testOwner, "get deal", notFound))

	dbErr := errors.New("connection reset")
	err := logFailure(log, testOwner, "get deal", dbErr)
	assert.ErrorIs(t, err, dbErr)
	assert.EqualError(t, err, "failed to get deal: connection reset")
}

func TestRequireID(t *testing.T) {
	var validation domain.ValidationError
	assert.ErrorAs(t, requireID("task", ""), &validation)

	var notFound *domain.ErrNotFound
	require.ErrorAs(t, requireID("task", "not-a-uuid"), &notFound)
	assert.Equal(t, "task", notFound.Entity)

	assert.NoError(t, requireID("task", testTaskID))
}

func TestCheckContactRef(t *testing.T) {
	tests := []struct {
		name       string
		contactID  *string
		setupMocks func(repo *mocks.MockContactRepository)
		check      func(t *testing.T, err error)
	}{
		{
			name:       "no reference",
			contactID:  nil,
			setupMocks: func(repo *mocks.MockContactRepository) {},
			check:      func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:       "malformed id",
			contactID:  strPtr("abc"),
			setupMocks: func(repo *mocks.MockContactRepository) {},
			check: func(t *testing.T, err error) {
				var validation domain.ValidationError
				assert.ErrorAs(t, err, &validation)
			},
		},
		{
			name:      "own contact",
			contactID: strPtr(testContactID),
			setupMocks: func(repo *mocks.MockContactRepository) {
				repo.EXPECT().ContactExists(gomock.Any(), testOwner, testContactID).Return(true, nil)
			},
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:      "someone else's contact",
			contactID: strPtr(testContactID),
			setupMocks: func(repo *mocks.MockContactRepository) {
				repo.EXPECT().ContactExists(gomock.Any(), testOwner, testContactID).Return(false, nil)
			},
			check: func(t *testing.T, err error) {
				var validation domain.ValidationError
				assert.ErrorAs(t, err, &validation)
			},
		},
		{
			name:      "store failure",
			contactID: strPtr(testContactID),
			setupMocks: func(repo *mocks.MockContactRepository) {
				repo.EXPECT().ContactExists(gomock.Any(), testOwner, testContactID).Return(false, errors.New("db down"))
			},
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "db down")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockContactRepository(ctrl)
			tt.setupMocks(repo)

			tt.check(t, checkContactRef(context.Background(), repo, testOwner, tt.contactID))
		})
	}
}

func TestCheckContactFilter(t *testing.T) {
	assert.NoError(t, checkContactFilter(nil))
	assert.NoError(t, checkContactFilter(strPtr(testContactID)))
	assert.Error(t, checkContactFilter(strPtr("nope")))
}
