package tracing

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	// SnapshotLatencyMs measures how long a dashboard snapshot takes end to end
	SnapshotLatencyMs = stats.Float64("crm/analytics/snapshot_latency", "Dashboard snapshot latency", stats.UnitMilliseconds)

	// SignIns counts completed OAuth sign-ins
	SignIns = stats.Int64("crm/auth/sign_ins", "Completed sign-ins", stats.UnitDimensionless)

	// KeyOutcome tags a measurement with "ok" or "error"
	KeyOutcome = tag.MustNewKey("outcome")
)

var crmViews = []*view.View{
	{
		Name:        "crm/analytics/snapshot_latency",
		Measure:     SnapshotLatencyMs,
		Description: "Distribution of dashboard snapshot latency",
		TagKeys:     []tag.Key{KeyOutcome},
		Aggregation: view.Distribution(5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	},
	{
		Name:        "crm/auth/sign_ins",
		Measure:     SignIns,
		Description: "Number of sign-ins by outcome",
		TagKeys:     []tag.Key{KeyOutcome},
		Aggregation: view.Count(),
	},
}

// RegisterCRMViews registers the application level views
func RegisterCRMViews() error {
	return view.Register(crmViews...)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSnapshotLatency records the elapsed time since start
func RecordSnapshotLatency(ctx context.Context, start time.Time, err error) {
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyOutcome, outcome(err))},
		SnapshotLatencyMs.M(elapsed),
	)
}

// RecordSignIn counts one sign-in attempt
func RecordSignIn(ctx context.Context, err error) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyOutcome, outcome(err))},
		SignIns.M(1),
	)
}
