package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_analytics_service.go -package mocks github.com/dealflow/crm/internal/domain AnalyticsService
//go:generate mockgen -destination mocks/mock_analytics_repository.go -package mocks github.com/dealflow/crm/internal/domain AnalyticsRepository

// ActivityType names the source of a feed entry
type ActivityType string

const (
	ActivityContact ActivityType = "contact"
	ActivityDeal    ActivityType = "deal"
	ActivityTask    ActivityType = "task"
)

// Rank orders sources when two activities share a timestamp
func (t ActivityType) Rank() int {
	switch t {
	case ActivityContact:
		return 0
	case ActivityDeal:
		return 1
	default:
		return 2
	}
}

type DealsByStage struct {
	Stage      DealStage `json:"stage"`
	Count      int       `json:"count"`
	TotalValue float64   `json:"total_value"`
}

type TasksByStatus struct {
	Status TaskStatus `json:"status"`
	Count  int        `json:"count"`
}

type ContactsByStatus struct {
	Status ContactStatus `json:"status"`
	Count  int           `json:"count"`
}

type RecentActivity struct {
	Type      ActivityType `json:"type"`
	Action    string       `json:"action"`
	Title     string       `json:"title"`
	Timestamp time.Time    `json:"timestamp"`
	ID        string       `json:"id"`
}

type MonthlyRevenue struct {
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	Revenue    float64 `json:"revenue"`
	DealsCount int     `json:"deals_count"`
}

type WeeklyRevenue struct {
	WeekStart  time.Time `json:"week_start"`
	Revenue    float64   `json:"revenue"`
	DealsCount int       `json:"deals_count"`
}

type YearlyRevenue struct {
	Year       int     `json:"year"`
	Revenue    float64 `json:"revenue"`
	DealsCount int     `json:"deals_count"`
}

// DashboardSnapshot is the analytics.dashboard response. Slices are never nil.
type DashboardSnapshot struct {
	TotalContacts          int                `json:"total_contacts"`
	TotalDeals             int                `json:"total_deals"`
	TotalTasks             int                `json:"total_tasks"`
	TotalDealValue         float64            `json:"total_deal_value"`
	DealsByStage           []DealsByStage     `json:"deals_by_stage"`
	TasksByStatus          []TasksByStatus    `json:"tasks_by_status"`
	ContactsByStatus       []ContactsByStatus `json:"contacts_by_status"`
	ConversionRate         float64            `json:"conversion_rate"`
	TasksCompletedThisWeek int                `json:"tasks_completed_this_week"`
	DealsClosedThisMonth   int                `json:"deals_closed_this_month"`
	RecentActivities       []RecentActivity   `json:"recent_activities"`
	MonthlyRevenue         []MonthlyRevenue   `json:"monthly_revenue"`
	WeeklyRevenue          []WeeklyRevenue    `json:"weekly_revenue"`
	YearlyRevenue          []YearlyRevenue    `json:"yearly_revenue"`
}

// ContactFact is the slice of a contact the aggregator reads
type ContactFact struct {
	ID        string
	FirstName string
	LastName  string
	Status    ContactStatus
	CreatedAt time.Time
}

type DealFact struct {
	ID              string
	Title           string
	Value           float64
	Stage           DealStage
	ActualCloseDate *time.Time
	CreatedAt       time.Time
}

type TaskFact struct {
	ID          string
	Title       string
	Status      TaskStatus
	IsCompleted bool
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// OwnerDataset is everything one owner has, read in a single transaction
type OwnerDataset struct {
	Contacts []ContactFact
	Deals    []DealFact
	Tasks    []TaskFact
}

// AnalyticsRepository loads the consistent read the aggregator works on
type AnalyticsRepository interface {
	LoadOwnerDataset(ctx context.Context, ownerID string) (*OwnerDataset, error)
}

// AnalyticsService builds the dashboard for the calling owner
type AnalyticsService interface {
	GetDashboard(ctx context.Context, ownerID string) (*DashboardSnapshot, error)
}
