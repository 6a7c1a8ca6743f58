package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_deal_repository.go -package mocks github.com/dealflow/crm/internal/domain DealRepository
//go:generate mockgen -destination mocks/mock_deal_service.go -package mocks github.com/dealflow/crm/internal/domain DealService

type DealStage string

const (
	DealStageLead        DealStage = "lead"
	DealStageQualified   DealStage = "qualified"
	DealStageProposal    DealStage = "proposal"
	DealStageNegotiation DealStage = "negotiation"
	DealStageClosedWon   DealStage = "closed_won"
	DealStageClosedLost  DealStage = "closed_lost"
)

// DealStages lists the pipeline in order
var DealStages = []DealStage{
	DealStageLead,
	DealStageQualified,
	DealStageProposal,
	DealStageNegotiation,
	DealStageClosedWon,
	DealStageClosedLost,
}

func (s DealStage) IsValid() bool {
	for _, stage := range DealStages {
		if s == stage {
			return true
		}
	}
	return false
}

// IsClosed reports whether the stage is terminal
func (s DealStage) IsClosed() bool {
	return s == DealStageClosedWon || s == DealStageClosedLost
}

const (
	DefaultDealCurrency    = "USD"
	DefaultDealProbability = 10
)

type Deal struct {
	ID                string     `json:"id" valid:"required,uuid"`
	OwnerID           string     `json:"owner_id" valid:"required"`
	ContactID         *string    `json:"contact_id"`
	Title             string     `json:"title" valid:"required"`
	Value             float64    `json:"value"`
	Currency          string     `json:"currency" valid:"required"`
	Stage             DealStage  `json:"stage" valid:"required"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	ActualCloseDate   *time.Time `json:"actual_close_date"`
	Notes             *string    `json:"notes"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (d *Deal) Validate() error {
	if _, err := govalidator.ValidateStruct(d); err != nil {
		return NewValidationError(err.Error())
	}
	if strings.TrimSpace(d.Title) == "" {
		return NewValidationError("title cannot be blank")
	}
	if !d.Stage.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid deal stage: %s", d.Stage))
	}
	if !govalidator.IsISO4217(d.Currency) {
		return NewValidationError(fmt.Sprintf("invalid currency code: %s", d.Currency))
	}
	if d.Value < 0 {
		return NewValidationError("value must be non-negative")
	}
	if !govalidator.InRangeInt(d.Probability, 0, 100) {
		return NewValidationError("probability must be between 0 and 100")
	}
	if d.ContactID != nil && !govalidator.IsUUID(*d.ContactID) {
		return NewValidationError("contact_id must be a UUID")
	}
	return nil
}

// DealPatch holds the fields present in a create or update body.
// actual_close_date is not client writable and is ignored if sent.
type DealPatch struct {
	Title             *string
	Value             *float64
	Currency          *string
	Stage             *DealStage
	Probability       *int
	ExpectedCloseDate *NullableTime
	Notes             *NullableString
	ContactID         *NullableString
}

func DealPatchFromJSON(data []byte) (*DealPatch, error) {
	result, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	p := &DealPatch{}
	if err := parseString(result, "title", &p.Title); err != nil {
		return nil, err
	}
	if err := parseFloat(result, "value", &p.Value); err != nil {
		return nil, err
	}
	if err := parseString(result, "currency", &p.Currency); err != nil {
		return nil, err
	}
	if p.Currency != nil {
		upper := strings.ToUpper(strings.TrimSpace(*p.Currency))
		p.Currency = &upper
	}
	if err := parseInt(result, "probability", &p.Probability); err != nil {
		return nil, err
	}
	if err := parseNullableTime(result, "expected_close_date", &p.ExpectedCloseDate); err != nil {
		return nil, err
	}
	if err := parseNullableString(result, "notes", &p.Notes); err != nil {
		return nil, err
	}
	if err := parseNullableString(result, "contact_id", &p.ContactID); err != nil {
		return nil, err
	}

	var stage *string
	if err := parseString(result, "stage", &stage); err != nil {
		return nil, err
	}
	if stage != nil {
		s := DealStage(*stage)
		if !s.IsValid() {
			return nil, NewValidationError(fmt.Sprintf("invalid deal stage: %s", *stage))
		}
		p.Stage = &s
	}

	return p, nil
}

// NewDeal builds a deal from a create body. A deal created in a closed
// stage is stamped as closed at now.
func NewDeal(id, ownerID string, p *DealPatch, now time.Time) (*Deal, error) {
	if p.Title == nil {
		return nil, NewValidationError("title is required")
	}

	d := ApplyDealPatch(Deal{
		ID:          id,
		OwnerID:     ownerID,
		Currency:    DefaultDealCurrency,
		Stage:       DealStageLead,
		Probability: DefaultDealProbability,
		CreatedAt:   now,
	}, p, now)

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ApplyDealPatch is the deal transition function. The close date is stamped
// the first time the stage is closed and is never rewritten afterwards.
func ApplyDealPatch(old Deal, p *DealPatch, now time.Time) Deal {
	d := old
	if p.Title != nil {
		d.Title = strings.TrimSpace(*p.Title)
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Currency != nil {
		d.Currency = *p.Currency
	}
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
	if p.Probability != nil {
		d.Probability = *p.Probability
	}
	applyNullableTime(&d.ExpectedCloseDate, p.ExpectedCloseDate)
	applyNullable(&d.Notes, p.Notes)
	applyNullable(&d.ContactID, p.ContactID)

	if d.Stage.IsClosed() && old.ActualCloseDate == nil {
		stamp := now
		d.ActualCloseDate = &stamp
	}

	d.UpdatedAt = now
	return d
}

type DealFilter struct {
	ListParams
	Stage     *DealStage
	ContactID *string
}

// DealRepository stores deals. Every method is scoped by owner.
type DealRepository interface {
	CreateDeal(ctx context.Context, deal *Deal) error
	GetDeal(ctx context.Context, ownerID, id string) (*Deal, error)
	ListDeals(ctx context.Context, ownerID string, filter DealFilter) ([]*Deal, error)
	UpdateDeal(ctx context.Context, deal *Deal) error
	DeleteDeal(ctx context.Context, ownerID, id string) error
}

type DealService interface {
	ListDeals(ctx context.Context, ownerID string, filter DealFilter) ([]*Deal, error)
	GetDeal(ctx context.Context, ownerID, id string) (*Deal, error)
	CreateDeal(ctx context.Context, ownerID string, patch *DealPatch) (*Deal, error)
	UpdateDeal(ctx context.Context, ownerID, id string, patch *DealPatch) (*Deal, error)
	DeleteDeal(ctx context.Context, ownerID, id string) error
}
