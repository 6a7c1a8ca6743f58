package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/pkg/analytics"
)

const (
	activitiesPerSource = 3
	maxRecentActivities = 10

	tasksCompletedWindow = 7 * 24 * time.Hour
	dealsClosedWindow    = 30 * 24 * time.Hour
)

// aggregate derives the dashboard from one owner's dataset. Each
// sub-aggregate writes its own snapshot fields, so they run concurrently
// without locking. ds is only read.
func aggregate(ctx context.Context, ds *domain.OwnerDataset, now time.Time) (*domain.DashboardSnapshot, error) {
	now = now.UTC()
	snap := &domain.DashboardSnapshot{
		TotalContacts: len(ds.Contacts),
		TotalDeals:    len(ds.Deals),
		TotalTasks:    len(ds.Tasks),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snap.DealsByStage, snap.TotalDealValue = dealsByStage(ds.Deals)
		return ctx.Err()
	})
	g.Go(func() error {
		snap.ContactsByStatus = contactsByStatus(ds.Contacts)
		snap.ConversionRate = conversionRate(ds.Contacts)
		return ctx.Err()
	})
	g.Go(func() error {
		snap.TasksByStatus = tasksByStatus(ds.Tasks)
		snap.TasksCompletedThisWeek = tasksCompletedWithin(ds.Tasks, now, tasksCompletedWindow)
		return ctx.Err()
	})
	g.Go(func() error {
		snap.DealsClosedThisMonth = dealsWonWithin(ds.Deals, now, dealsClosedWindow)
		return ctx.Err()
	})
	g.Go(func() error {
		snap.RecentActivities = recentActivities(ds)
		return ctx.Err()
	})
	g.Go(func() error {
		snap.MonthlyRevenue, snap.WeeklyRevenue, snap.YearlyRevenue = revenueSeries(ds.Deals, now)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func dealsByStage(deals []domain.DealFact) ([]domain.DealsByStage, float64) {
	groups := make(map[domain.DealStage]*domain.DealsByStage)
	total := 0.0
	for _, d := range deals {
		total += d.Value
		g, ok := groups[d.Stage]
		if !ok {
			g = &domain.DealsByStage{Stage: d.Stage}
			groups[d.Stage] = g
		}
		g.Count++
		g.TotalValue += d.Value
	}

	out := make([]domain.DealsByStage, 0, len(groups))
	for _, stage := range orderedKeys(groups, domain.DealStages) {
		out = append(out, *groups[stage])
	}
	return out, total
}

func contactsByStatus(contacts []domain.ContactFact) []domain.ContactsByStatus {
	counts := make(map[domain.ContactStatus]int)
	for _, c := range contacts {
		counts[c.Status]++
	}

	out := make([]domain.ContactsByStatus, 0, len(counts))
	for _, status := range orderedKeys(counts, domain.ContactStatuses) {
		out = append(out, domain.ContactsByStatus{Status: status, Count: counts[status]})
	}
	return out
}

func tasksByStatus(tasks []domain.TaskFact) []domain.TasksByStatus {
	counts := make(map[domain.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}

	out := make([]domain.TasksByStatus, 0, len(counts))
	for _, status := range orderedKeys(counts, domain.TaskStatuses) {
		out = append(out, domain.TasksByStatus{Status: status, Count: counts[status]})
	}
	return out
}

// orderedKeys returns the keys of m in the order of known, followed by any
// unknown keys sorted lexically
func orderedKeys[K ~string, V any](m map[K]V, known []K) []K {
	keys := make([]K, 0, len(m))
	seen := make(map[K]bool, len(known))
	for _, k := range known {
		seen[k] = true
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}

	var rest []K
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(keys, rest...)
}

func conversionRate(contacts []domain.ContactFact) float64 {
	if len(contacts) == 0 {
		return 0
	}
	customers := 0
	for _, c := range contacts {
		if c.Status == domain.ContactStatusCustomer {
			customers++
		}
	}
	return analytics.Round(float64(customers)/float64(len(contacts))*100, 2)
}

func tasksCompletedWithin(tasks []domain.TaskFact, now time.Time, window time.Duration) int {
	n := 0
	for _, t := range tasks {
		if t.IsCompleted && t.CompletedAt != nil && analytics.InTrailingWindow(*t.CompletedAt, now, window) {
			n++
		}
	}
	return n
}

func dealsWonWithin(deals []domain.DealFact, now time.Time, window time.Duration) int {
	n := 0
	for _, d := range deals {
		if isWon(d) && analytics.InTrailingWindow(*d.ActualCloseDate, now, window) {
			n++
		}
	}
	return n
}

func isWon(d domain.DealFact) bool {
	return d.Stage == domain.DealStageClosedWon && d.ActualCloseDate != nil
}

func recentActivities(ds *domain.OwnerDataset) []domain.RecentActivity {
	contacts := make([]domain.RecentActivity, 0, len(ds.Contacts))
	for _, c := range ds.Contacts {
		contacts = append(contacts, domain.RecentActivity{
			Type:      domain.ActivityContact,
			Action:    "created",
			Title:     strings.TrimSpace(c.FirstName + " " + c.LastName),
			Timestamp: c.CreatedAt.UTC(),
			ID:        c.ID,
		})
	}

	deals := make([]domain.RecentActivity, 0, len(ds.Deals))
	for _, d := range ds.Deals {
		deals = append(deals, domain.RecentActivity{
			Type:      domain.ActivityDeal,
			Action:    "created",
			Title:     d.Title,
			Timestamp: d.CreatedAt.UTC(),
			ID:        d.ID,
		})
	}

	tasks := make([]domain.RecentActivity, 0, len(ds.Tasks))
	for _, t := range ds.Tasks {
		if !t.IsCompleted {
			continue
		}
		ts := t.UpdatedAt
		if t.CompletedAt != nil {
			ts = *t.CompletedAt
		}
		tasks = append(tasks, domain.RecentActivity{
			Type:      domain.ActivityTask,
			Action:    "completed",
			Title:     t.Title,
			Timestamp: ts.UTC(),
			ID:        t.ID,
		})
	}

	feed := make([]domain.RecentActivity, 0, 3*activitiesPerSource)
	feed = append(feed, newest(contacts, activitiesPerSource)...)
	feed = append(feed, newest(deals, activitiesPerSource)...)
	feed = append(feed, newest(tasks, activitiesPerSource)...)
	return newest(feed, maxRecentActivities)
}

// newest sorts items newest first and keeps at most n. Equal timestamps are
// ordered by source, then id.
func newest(items []domain.RecentActivity, n int) []domain.RecentActivity {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.Type.Rank() != b.Type.Rank() {
			return a.Type.Rank() < b.Type.Rank()
		}
		return a.ID < b.ID
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

type revenueBucket struct {
	revenue float64
	count   int
}

// sumWon adds every closed_won deal to the bucket its close date falls in
func sumWon(deals []domain.DealFact, buckets []analytics.Bucket) []revenueBucket {
	sums := make([]revenueBucket, len(buckets))
	for _, d := range deals {
		if !isWon(d) {
			continue
		}
		if i := analytics.Locate(buckets, d.ActualCloseDate.UTC()); i >= 0 {
			sums[i].revenue += d.Value
			sums[i].count++
		}
	}
	return sums
}

func revenueSeries(deals []domain.DealFact, now time.Time) ([]domain.MonthlyRevenue, []domain.WeeklyRevenue, []domain.YearlyRevenue) {
	months := analytics.Series(analytics.Month, now)
	weeks := analytics.Series(analytics.Week, now)
	years := analytics.Series(analytics.Year, now)

	monthly := make([]domain.MonthlyRevenue, len(months))
	for i, s := range sumWon(deals, months) {
		monthly[i] = domain.MonthlyRevenue{
			Month:      int(months[i].Start.Month()),
			Year:       months[i].Start.Year(),
			Revenue:    s.revenue,
			DealsCount: s.count,
		}
	}

	weekly := make([]domain.WeeklyRevenue, len(weeks))
	for i, s := range sumWon(deals, weeks) {
		weekly[i] = domain.WeeklyRevenue{
			WeekStart:  weeks[i].Start,
			Revenue:    s.revenue,
			DealsCount: s.count,
		}
	}

	yearly := make([]domain.YearlyRevenue, len(years))
	for i, s := range sumWon(deals, years) {
		yearly[i] = domain.YearlyRevenue{
			Year:       years[i].Start.Year(),
			Revenue:    s.revenue,
			DealsCount: s.count,
		}
	}

	return monthly, weekly, yearly
}
