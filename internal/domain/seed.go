package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_seed_repository.go -package mocks github.com/dealflow/crm/internal/domain SeedRepository
//go:generate mockgen -destination mocks/mock_demo_service.go -package mocks github.com/dealflow/crm/internal/domain DemoService

// DemoData is the sample book of business written by demo.seed
type DemoData struct {
	Contacts []*Contact
	Deals    []*Deal
	Tasks    []*Task
}

// SeedRepository writes demo data in one transaction
type SeedRepository interface {
	// SeedIfEmpty inserts data unless the owner already has a contact.
	// It reports whether anything was written.
	SeedIfEmpty(ctx context.Context, ownerID string, data *DemoData) (bool, error)
}

type DemoService interface {
	Seed(ctx context.Context, ownerID string) (bool, error)
}

type demoContact struct {
	first, last, email, phone, company, title, city string
	status                                          ContactStatus
	source                                          string
}

type demoDeal struct {
	title       string
	value       float64
	stage       DealStage
	probability int
	contact     int
	expectedIn  int
	closedAgo   int
}

type demoTask struct {
	title, description string
	taskType           TaskType
	priority           TaskPriority
	status             TaskStatus
	contact            int
	dueIn              int
	completedAgo       int
}

var demoContacts = []demoContact{
	{"John", "Smith", "john.smith@techcorp.com", "+1 (555) 123-4567", "TechCorp Inc.", "CTO", "San Francisco", ContactStatusCustomer, "linkedin"},
	{"Sarah", "Johnson", "sarah.j@innovate.io", "+1 (555) 234-5678", "Innovate.io", "VP of Engineering", "New York", ContactStatusProspect, "referral"},
	{"Michael", "Chen", "m.chen@globaltech.com", "+1 (555) 345-6789", "GlobalTech Solutions", "Director of IT", "Seattle", ContactStatusLead, "website"},
	{"Emma", "Williams", "emma.w@startup.co", "+1 (555) 456-7890", "StartUp Co", "CEO", "Austin", ContactStatusCustomer, "conference"},
	{"David", "Brown", "d.brown@enterprise.com", "+1 (555) 567-8901", "Enterprise Solutions", "Head of Procurement", "Chicago", ContactStatusProspect, "cold_outreach"},
	{"Lisa", "Anderson", "lisa.a@fintech.io", "+1 (555) 678-9012", "FinTech Solutions", "CFO", "Boston", ContactStatusLead, "webinar"},
	{"James", "Wilson", "j.wilson@cloudserv.com", "+1 (555) 789-0123", "CloudServ Inc.", "IT Manager", "Denver", ContactStatusCustomer, "partner"},
	{"Maria", "Garcia", "m.garcia@dataflow.io", "+1 (555) 890-1234", "DataFlow Analytics", "Data Director", "Miami", ContactStatusProspect, "linkedin"},
}

// expectedIn and closedAgo are days relative to now; closedAgo 0 means open
var demoDeals = []demoDeal{
	{"TechCorp Enterprise License", 150000, DealStageClosedWon, 100, 0, -10, 5},
	{"Innovate.io Platform Integration", 75000, DealStageNegotiation, 70, 1, 14, 0},
	{"GlobalTech Pilot Program", 25000, DealStageProposal, 50, 2, 30, 0},
	{"StartUp Co Annual Contract", 48000, DealStageClosedWon, 100, 3, -20, 18},
	{"Enterprise Solutions Expansion", 200000, DealStageQualified, 30, 4, 60, 0},
	{"FinTech Implementation", 95000, DealStageLead, 10, 5, 90, 0},
	{"CloudServ Renewal", 36000, DealStageNegotiation, 80, 6, 7, 0},
	{"DataFlow Analytics Suite", 120000, DealStageProposal, 40, 7, 45, 0},
}

var demoTasks = []demoTask{
	{"Follow up with Sarah Johnson", "Discuss platform integration requirements and timeline", TaskTypeCall, TaskPriorityHigh, TaskStatusPending, 1, 1, 0},
	{"Send proposal to GlobalTech", "Prepare and send detailed proposal for pilot program", TaskTypeEmail, TaskPriorityHigh, TaskStatusInProgress, 2, 2, 0},
	{"Schedule demo with Enterprise Solutions", "Set up product demo for the procurement team", TaskTypeMeeting, TaskPriorityMedium, TaskStatusPending, 4, 5, 0},
	{"Review CloudServ contract terms", "Review renewal terms and prepare counter-offer", TaskTypeTask, TaskPriorityHigh, TaskStatusPending, 6, 3, 0},
	{"Quarterly business review with TechCorp", "Prepare QBR presentation and schedule meeting", TaskTypeMeeting, TaskPriorityMedium, TaskStatusPending, 0, 14, 0},
	{"Update CRM with new lead info", "Add notes from FinTech discovery call", TaskTypeTask, TaskPriorityLow, TaskStatusCompleted, 5, 0, 1},
	{"Send thank you note to StartUp Co", "Thank them for signing the annual contract", TaskTypeEmail, TaskPriorityLow, TaskStatusCompleted, 3, 0, 2},
	{"Research DataFlow competitors", "Prepare competitive analysis for the proposal", TaskTypeTask, TaskPriorityMedium, TaskStatusPending, 7, 7, 0},
}

// BuildDemoData lays out the sample records for ownerID relative to now.
// newID supplies record ids.
func BuildDemoData(ownerID string, now time.Time, newID func() string) *DemoData {
	day := 24 * time.Hour
	str := func(s string) *string { return &s }
	at := func(d time.Duration) *time.Time { t := now.Add(d); return &t }

	data := &DemoData{
		Contacts: make([]*Contact, 0, len(demoContacts)),
		Deals:    make([]*Deal, 0, len(demoDeals)),
		Tasks:    make([]*Task, 0, len(demoTasks)),
	}

	for _, c := range demoContacts {
		data.Contacts = append(data.Contacts, &Contact{
			ID:        newID(),
			OwnerID:   ownerID,
			FirstName: c.first,
			LastName:  c.last,
			Email:     str(c.email),
			Phone:     str(c.phone),
			Company:   str(c.company),
			JobTitle:  str(c.title),
			City:      str(c.city),
			Country:   str("USA"),
			Status:    c.status,
			Source:    str(c.source),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	for _, d := range demoDeals {
		deal := &Deal{
			ID:                newID(),
			OwnerID:           ownerID,
			ContactID:         str(data.Contacts[d.contact].ID),
			Title:             d.title,
			Value:             d.value,
			Currency:          DefaultDealCurrency,
			Stage:             d.stage,
			Probability:       d.probability,
			ExpectedCloseDate: at(time.Duration(d.expectedIn) * day),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if d.closedAgo > 0 {
			deal.ActualCloseDate = at(-time.Duration(d.closedAgo) * day)
		}
		data.Deals = append(data.Deals, deal)
	}

	for _, t := range demoTasks {
		task := &Task{
			ID:          newID(),
			OwnerID:     ownerID,
			ContactID:   str(data.Contacts[t.contact].ID),
			Title:       t.title,
			Description: str(t.description),
			TaskType:    t.taskType,
			Priority:    t.priority,
			Status:      t.status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if t.dueIn > 0 {
			task.DueDate = at(time.Duration(t.dueIn) * day)
		}
		if t.completedAgo > 0 {
			task.IsCompleted = true
			task.CompletedAt = at(-time.Duration(t.completedAgo) * day)
		}
		data.Tasks = append(data.Tasks, task)
	}

	return data
}
