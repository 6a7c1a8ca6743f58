package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

type ContactService struct {
	repo   domain.ContactRepository
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewContactService(repo domain.ContactRepository, logger logger.Logger) *ContactService {
	return &ContactService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *ContactService) ListContacts(ctx context.Context, ownerID string, filter domain.ContactFilter) ([]*domain.Contact, error) {
	if err := filter.ListParams.Validate(); err != nil {
		return nil, err
	}

	contacts, err := s.repo.ListContacts(ctx, ownerID, filter)
	if err != nil {
		return nil, logFailure(s.logger, ownerID, "list contacts", err)
	}
	return contacts, nil
}

func (s *ContactService) GetContact(ctx context.Context, ownerID, id string) (*domain.Contact, error) {
	if err := requireID("contact", id); err != nil {
		return nil, err
	}

	contact, err := s.repo.GetContact(ctx, ownerID, id)
	if err != nil {
		return nil, logFailure(s.logger, ownerID, "get contact", err)
	}
	return contact, nil
}

func (s *ContactService) CreateContact(ctx context.Context, ownerID string, patch *domain.ContactPatch) (*domain.Contact, error) {
	contact, err := domain.NewContact(s.newID(), ownerID, patch, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, logFailure(s.logger, ownerID, "create contact", err)
	}
	return contact, nil
}

func (s *ContactService) UpdateContact(ctx context.Context, ownerID, id string, patch *domain.ContactPatch) (*domain.Contact, error) {
	existing, err := s.GetContact(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := domain.ApplyContactPatch(*existing, patch, s.now().UTC())
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateContact(ctx, &updated); err != nil {
		return nil, logFailure(s.logger, ownerID, "update contact", err)
	}
	return &updated, nil
}

// DeleteContact removes the contact and every deal and task attached to it
func (s *ContactService) DeleteContact(ctx context.Context, ownerID, id string) error {
	if err := requireID("contact", id); err != nil {
		return err
	}

	if err := s.repo.DeleteContact(ctx, ownerID, id); err != nil {
		return logFailure(s.logger, ownerID, "delete contact", err)
	}
	return nil
}
