package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
	"github.com/dealflow/crm/pkg/tracing"
)

// DemoService fills an empty account with sample contacts, deals and tasks
type DemoService struct {
	repo   domain.SeedRepository
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewDemoService(repo domain.SeedRepository, logger logger.Logger) *DemoService {
	return &DemoService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Seed writes the demo book of business unless the owner already has
// contacts. It reports whether anything was written.
func (s *DemoService) Seed(ctx context.Context, ownerID string) (bool, error) {
	data := domain.BuildDemoData(ownerID, s.now().UTC(), s.newID)

	seeded, err := tracing.TraceMethodWithResult(ctx, "DemoService", "Seed", func(ctx context.Context) (bool, error) {
		tracing.AddAttribute(ctx, "owner_id", ownerID)
		return s.repo.SeedIfEmpty(ctx, ownerID, data)
	})
	if err != nil {
		return false, logFailure(s.logger, ownerID, "seed demo data", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"owner_id": ownerID,
		"seeded":   seeded,
	}).Info("Demo seed finished")
	return seeded, nil
}
