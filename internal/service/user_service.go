package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
	"github.com/dealflow/crm/pkg/tracing"
)

type UserService struct {
	repo   domain.UserRepository
	logger logger.Logger
	now    func() time.Time
}

func NewUserService(repo domain.UserRepository, logger logger.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// UpdateMe applies a partial profile update. An empty patch returns the
// stored user untouched.
func (s *UserService) UpdateMe(ctx context.Context, userID string, patch *domain.UserPatch) (*domain.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, logFailure(s.logger, userID, "get user", err)
	}
	if patch.IsEmpty() {
		return user, nil
	}

	updated := patch.Apply(*user, s.now().UTC())
	if err := s.repo.UpdateUser(ctx, &updated); err != nil {
		return nil, logFailure(s.logger, userID, "update user", err)
	}
	return &updated, nil
}

// DeleteMe removes the account, its sessions and everything it owns
func (s *UserService) DeleteMe(ctx context.Context, userID string) error {
	err := tracing.TraceMethod(ctx, "UserService", "DeleteMe", func(ctx context.Context) error {
		return s.repo.DeleteUser(ctx, userID)
	})
	if err != nil {
		return logFailure(s.logger, userID, "delete user", err)
	}

	s.logger.WithField("user_id", userID).Info(fmt.Sprintf("Deleted account %s", userID))
	return nil
}
