package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// DealService stamps actual_close_date through domain.ApplyDealPatch and
// checks that a referenced contact belongs to the same owner
type DealService struct {
	repo     domain.DealRepository
	contacts domain.ContactRepository
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewDealService(repo domain.DealRepository, contacts domain.ContactRepository, logger logger.Logger) *DealService {
	return &DealService{
		repo:     repo,
		contacts: contacts,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *DealService) ListDeals(ctx context.Context, ownerID string, filter domain.DealFilter) ([]*domain.Deal, error) {
	if err := filter.ListParams.Validate(); err != nil {
		return nil, err
	}
	if err := checkContactFilter(filter.ContactID); err != nil {
		return nil, err
	}

	deals, err := s.repo.ListDeals(ctx, ownerID, filter)
	if err != nil {
		return nil, logFailure(s.logger, ownerID, "list deals", err)
	}
	return deals, nil
}

func (s *DealService) GetDeal(ctx context.Context, ownerID, id string) (*domain.Deal, error) {
	if err := requireID("deal", id); err != nil {
		return nil, err
	}

	deal, err := s.repo.GetDeal(ctx, ownerID, id)
	if err != nil {
		return nil, logFailure(s.logger, ownerID, "get deal", err)
	}
	return deal, nil
}

func (s *DealService) CreateDeal(ctx context.Context, ownerID string, patch *domain.DealPatch) (*domain.Deal, error) {
	deal, err := domain.NewDeal(s.newID(), ownerID, patch, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := checkContactRef(ctx, s.contacts, ownerID, deal.ContactID); err != nil {
		return nil, logFailure(s.logger, ownerID, "check deal contact", err)
	}

	if err := s.repo.CreateDeal(ctx, deal); err != nil {
		return nil, logFailure(s.logger, ownerID, "create deal", err)
	}
	return deal, nil
}

func (s *DealService) UpdateDeal(ctx context.Context, ownerID, id string, patch *domain.DealPatch) (*domain.Deal, error) {
	existing, err := s.GetDeal(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := domain.ApplyDealPatch(*existing, patch, s.now().UTC())
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if patch.ContactID != nil && !patch.ContactID.IsNull {
		if err := checkContactRef(ctx, s.contacts, ownerID, updated.ContactID); err != nil {
			return nil, logFailure(s.logger, ownerID, "check deal contact", err)
		}
	}

	if err := s.repo.UpdateDeal(ctx, &updated); err != nil {
		return nil, logFailure(s.logger, ownerID, "update deal", err)
	}
	return &updated, nil
}

func (s *DealService) DeleteDeal(ctx context.Context, ownerID, id string) error {
	if err := requireID("deal", id); err != nil {
		return err
	}

	if err := s.repo.DeleteDeal(ctx, ownerID, id); err != nil {
		return logFailure(s.logger, ownerID, "delete deal", err)
	}
	return nil
}
