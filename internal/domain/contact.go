package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_contact_repository.go -package mocks github.com/dealflow/crm/internal/domain ContactRepository
//go:generate mockgen -destination mocks/mock_contact_service.go -package mocks github.com/dealflow/crm/internal/domain ContactService

type ContactStatus string

const (
	ContactStatusLead     ContactStatus = "lead"
	ContactStatusProspect ContactStatus = "prospect"
	ContactStatusCustomer ContactStatus = "customer"
	ContactStatusChurned  ContactStatus = "churned"
)

// ContactStatuses is the funnel order used when grouping
var ContactStatuses = []ContactStatus{
	ContactStatusLead,
	ContactStatusProspect,
	ContactStatusCustomer,
	ContactStatusChurned,
}

func (s ContactStatus) IsValid() bool {
	return govalidator.IsIn(string(s), "lead", "prospect", "customer", "churned")
}

// Contact is a person tracked by one owner
type Contact struct {
	ID        string        `json:"id" valid:"required,uuid"`
	OwnerID   string        `json:"owner_id" valid:"required"`
	FirstName string        `json:"first_name" valid:"required"`
	LastName  string        `json:"last_name" valid:"required"`
	Email     *string       `json:"email"`
	Phone     *string       `json:"phone"`
	Company   *string       `json:"company"`
	JobTitle  *string       `json:"job_title"`
	Address   *string       `json:"address"`
	City      *string       `json:"city"`
	Country   *string       `json:"country"`
	Status    ContactStatus `json:"status" valid:"required,in(lead|prospect|customer|churned)"`
	Source    *string       `json:"source"`
	Notes     *string       `json:"notes"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Validate checks the contact after defaults and patches have been applied
func (c *Contact) Validate() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return NewValidationError(err.Error())
	}
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return NewValidationError("first_name and last_name cannot be blank")
	}
	if c.Email != nil && *c.Email != "" && !govalidator.IsEmail(*c.Email) {
		return NewValidationError(fmt.Sprintf("invalid email: %s", *c.Email))
	}
	return nil
}

// ContactPatch holds the fields present in a create or update body.
// Nil means absent. A NullableString with IsNull clears the column.
type ContactPatch struct {
	FirstName *string
	LastName  *string
	Email     *NullableString
	Phone     *NullableString
	Company   *NullableString
	JobTitle  *NullableString
	Address   *NullableString
	City      *NullableString
	Country   *NullableString
	Status    *ContactStatus
	Source    *NullableString
	Notes     *NullableString
}

// ContactPatchFromJSON decodes a contact body, keeping absent and null apart
func ContactPatchFromJSON(data []byte) (*ContactPatch, error) {
	result, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	p := &ContactPatch{}
	if err := parseString(result, "first_name", &p.FirstName); err != nil {
		return nil, err
	}
	if err := parseString(result, "last_name", &p.LastName); err != nil {
		return nil, err
	}

	nullables := map[string]**NullableString{
		"email":     &p.Email,
		"phone":     &p.Phone,
		"company":   &p.Company,
		"job_title": &p.JobTitle,
		"address":   &p.Address,
		"city":      &p.City,
		"country":   &p.Country,
		"source":    &p.Source,
		"notes":     &p.Notes,
	}
	for field, target := range nullables {
		if err := parseNullableString(result, field, target); err != nil {
			return nil, err
		}
	}

	var status *string
	if err := parseString(result, "status", &status); err != nil {
		return nil, err
	}
	if status != nil {
		s := ContactStatus(*status)
		if !s.IsValid() {
			return nil, NewValidationError(fmt.Sprintf("invalid contact status: %s", *status))
		}
		p.Status = &s
	}

	return p, nil
}

// NewContact builds a contact from a create body. Status defaults to lead.
func NewContact(id, ownerID string, p *ContactPatch, now time.Time) (*Contact, error) {
	if p.FirstName == nil || p.LastName == nil {
		return nil, NewValidationError("first_name and last_name are required")
	}

	c := ApplyContactPatch(Contact{
		ID:        id,
		OwnerID:   ownerID,
		Status:    ContactStatusLead,
		CreatedAt: now,
	}, p, now)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyContactPatch returns c with the patch folded in
func ApplyContactPatch(c Contact, p *ContactPatch, now time.Time) Contact {
	if p.FirstName != nil {
		c.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		c.LastName = strings.TrimSpace(*p.LastName)
	}
	applyNullable(&c.Email, p.Email)
	applyNullable(&c.Phone, p.Phone)
	applyNullable(&c.Company, p.Company)
	applyNullable(&c.JobTitle, p.JobTitle)
	applyNullable(&c.Address, p.Address)
	applyNullable(&c.City, p.City)
	applyNullable(&c.Country, p.Country)
	applyNullable(&c.Source, p.Source)
	applyNullable(&c.Notes, p.Notes)
	if p.Status != nil {
		c.Status = *p.Status
	}
	c.UpdatedAt = now
	return c
}

// ContactFilter narrows contacts.list
type ContactFilter struct {
	ListParams
	Status *ContactStatus
}

// ContactRepository stores contacts. Every method is scoped by owner.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact *Contact) error
	GetContact(ctx context.Context, ownerID, id string) (*Contact, error)
	ListContacts(ctx context.Context, ownerID string, filter ContactFilter) ([]*Contact, error)
	UpdateContact(ctx context.Context, contact *Contact) error

	// DeleteContact removes the contact with its deals and tasks
	DeleteContact(ctx context.Context, ownerID, id string) error

	ContactExists(ctx context.Context, ownerID, id string) (bool, error)
}

type ContactService interface {
	ListContacts(ctx context.Context, ownerID string, filter ContactFilter) ([]*Contact, error)
	GetContact(ctx context.Context, ownerID, id string) (*Contact, error)
	CreateContact(ctx context.Context, ownerID string, patch *ContactPatch) (*Contact, error)
	UpdateContact(ctx context.Context, ownerID, id string, patch *ContactPatch) (*Contact, error)
	DeleteContact(ctx context.Context, ownerID, id string) error
}
