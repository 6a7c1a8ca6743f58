package service

import (
	"context"
	"time"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
	"github.com/dealflow/crm/pkg/tracing"
)

// AnalyticsService computes the dashboard snapshot from a single consistent
// read of the owner's records. It writes nothing.
type AnalyticsService struct {
	repo   domain.AnalyticsRepository
	logger logger.Logger
	now    func() time.Time
}

func NewAnalyticsService(repo domain.AnalyticsRepository, logger logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetDashboard either returns a complete snapshot or fails. There is no
// partial result.
func (s *AnalyticsService) GetDashboard(ctx context.Context, ownerID string) (snapshot *domain.DashboardSnapshot, err error) {
	start := time.Now()
	ctx, span := tracing.StartServiceSpan(ctx, "AnalyticsService", "GetDashboard")
	defer func() {
		tracing.RecordSnapshotLatency(ctx, start, err)
		tracing.EndSpan(span, err)
	}()
	tracing.AddAttribute(ctx, "owner_id", ownerID)

	now := s.now().UTC()

	ds, err := s.repo.LoadOwnerDataset(ctx, ownerID)
	if err != nil {
		return nil, logFailure(s.logger, ownerID, "load analytics dataset", err)
	}

	snapshot, err = aggregate(ctx, ds, now)
	if err != nil {
		return nil, logFailure(s.logger, ownerID, "aggregate dashboard", err)
	}

	tracing.AddAttribute(ctx, "total_contacts", snapshot.TotalContacts)
	tracing.AddAttribute(ctx, "total_deals", snapshot.TotalDeals)
	tracing.AddAttribute(ctx, "total_tasks", snapshot.TotalTasks)
	return snapshot, nil
}
