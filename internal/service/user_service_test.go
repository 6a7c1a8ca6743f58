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

func setupUserService(t *testing.T) (*UserService, *mocks.MockUserRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)

	svc := NewUserService(repo, logger.NewTestLogger(t))
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func storedUser() *domain.User {
	return &domain.User{
		ID:        testOwner,
		Email:     "ada@example.com",
		Name:      "Ada",
		Picture:   strPtr("https://example.com/ada.png"),
		IsActive:  true,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

func TestUserService_UpdateMe(t *testing.T) {
	t.Run("renames and clears the picture", func(t *testing.T) {
		svc, repo := setupUserService(t)
		patch, err := domain.UserPatchFromJSON([]byte(`{"name":" Ada Lovelace ","picture":null}`))
		require.NoError(t, err)

		repo.EXPECT().GetUserByID(gomock.Any(), testOwner).Return(storedUser(), nil)
		repo.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) error {
			assert.Equal(t, "Ada Lovelace", u.Name)
			assert.Nil(t, u.Picture)
			return nil
		})

		user, err := svc.UpdateMe(context.Background(), testOwner, patch)
		require.NoError(t, err)
		assert.Equal(t, testNow, user.UpdatedAt)
		assert.Equal(t, "ada@example.com", user.Email)
	})

	t.Run("empty patch returns the stored user", func(t *testing.T) {
		svc, repo := setupUserService(t)
		repo.EXPECT().GetUserByID(gomock.Any(), testOwner).Return(storedUser(), nil)

		user, err := svc.UpdateMe(context.Background(), testOwner, &domain.UserPatch{})
		require.NoError(t, err)
		assert.Equal(t, "Ada", user.Name)
	})

	t.Run("invalid picture", func(t *testing.T) {
		svc, _ := setupUserService(t)

		_, err := svc.UpdateMe(context.Background(), testOwner, &domain.UserPatch{
			Picture: &domain.NullableString{String: "not a url"},
		})
		var validation domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("update failure", func(t *testing.T) {
		svc, repo := setupUserService(t)
		repo.EXPECT().GetUserByID(gomock.Any(), testOwner).Return(storedUser(), nil)
		repo.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		_, err := svc.UpdateMe(context.Background(), testOwner, &domain.UserPatch{Name: strPtr("Ada L")})
		assert.EqualError(t, err, "failed to update user: db down")
	})
}

func TestUserService_DeleteMe(t *testing.T) {
	svc, repo := setupUserService(t)
	repo.EXPECT().DeleteUser(gomock.Any(), testOwner).Return(nil)
	assert.NoError(t, svc.DeleteMe(context.Background(), testOwner))

	repo.EXPECT().DeleteUser(gomock.Any(), testOwner).Return(errors.New("db down"))
	assert.EqualError(t, svc.DeleteMe(context.Background(), testOwner), "failed to delete user: db down")
}
