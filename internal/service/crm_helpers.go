package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/asaskevich/govalidator"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/logger"
)

// isClientError reports errors that are the caller's fault and pass
// through services without being logged
func isClientError(err error) bool {
	var notFound *domain.ErrNotFound
	var validation domain.ValidationError
	return errors.As(err, &notFound) || errors.As(err, &validation)
}

// logFailure logs err unless it is a client error, then returns it wrapped
func logFailure(log logger.Logger, ownerID, action string, err error) error {
	if isClientError(err) {
		return err
	}
	log.WithField("owner_id", ownerID).
		WithField("error", err.Error()).
		Error(fmt.Sprintf("Failed to %s", action))
	return fmt.Errorf("failed to %s: %w", action, err)
}

// requireID rejects ids that cannot exist. Records are keyed by UUID, so a
// malformed id is simply not found.
func requireID(entity, id string) error {
	if id == "" {
		return domain.NewValidationError(fmt.Sprintf("%s id is required", entity))
	}
	if !govalidator.IsUUID(id) {
		return &domain.ErrNotFound{Entity: entity, ID: id}
	}
	return nil
}

// checkContactRef verifies that contactID, when set, names a contact of the owner
func checkContactRef(ctx context.Context, contacts domain.ContactRepository, ownerID string, contactID *string) error {
	if contactID == nil {
		return nil
	}
	if !govalidator.IsUUID(*contactID) {
		return domain.NewValidationError("contact_id must be a UUID")
	}

	exists, err := contacts.ContactExists(ctx, ownerID, *contactID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewValidationError(fmt.Sprintf("contact %s does not exist", *contactID))
	}
	return nil
}

// checkContactFilter validates the contact_id list filter
func checkContactFilter(contactID *string) error {
	if contactID != nil && !govalidator.IsUUID(*contactID) {
		return domain.NewValidationError("contact_id must be a UUID")
	}
	return nil
}
