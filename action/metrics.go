package action

import (
	"context"

	"github.com/mohitkumar/actionbus/model"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyAction = tag.MustNewKey("action")
	KeyStatus = tag.MustNewKey("status")
	KeyReason = tag.MustNewKey("reason")
)

var (
	MDispatchAccepted  = stats.Int64("actionbus/dispatch_accepted", "dispatches accepted by a server", stats.UnitDimensionless)
	MDispatchRejected  = stats.Int64("actionbus/dispatch_rejected", "dispatches rejected because the server was busy", stats.UnitDimensionless)
	MDispatchDropped   = stats.Int64("actionbus/dispatch_dropped", "addressed dispatches dropped without effect", stats.UnitDimensionless)
	MFeedbackPublished = stats.Int64("actionbus/feedback_published", "feedback messages published", stats.UnitDimensionless)
	MFeedbackReceived  = stats.Int64("actionbus/feedback_received", "feedback messages accepted by a client", stats.UnitDimensionless)
)

var Views = []*view.View{
	{Name: "actionbus/dispatch_accepted_count", Measure: MDispatchAccepted, Aggregation: view.Count(), TagKeys: []tag.Key{KeyAction}},
	{Name: "actionbus/dispatch_rejected_count", Measure: MDispatchRejected, Aggregation: view.Count(), TagKeys: []tag.Key{KeyAction}},
	{Name: "actionbus/dispatch_dropped_count", Measure: MDispatchDropped, Aggregation: view.Count(), TagKeys: []tag.Key{KeyAction, KeyReason}},
	{Name: "actionbus/feedback_published_count", Measure: MFeedbackPublished, Aggregation: view.Count(), TagKeys: []tag.Key{KeyAction, KeyStatus}},
	{Name: "actionbus/feedback_received_count", Measure: MFeedbackReceived, Aggregation: view.Count(), TagKeys: []tag.Key{KeyAction, KeyStatus}},
}

func record(m *stats.Int64Measure, mutators ...tag.Mutator) {
	ctx, err := tag.New(context.Background(), mutators...)
	if err != nil {
		return
	}
	stats.Record(ctx, m.M(1))
}

func recordAccepted(name string) {
	record(MDispatchAccepted, tag.Upsert(KeyAction, name))
}

func recordRejected(name string) {
	record(MDispatchRejected, tag.Upsert(KeyAction, name))
}

func recordDropped(name string, reason string) {
	record(MDispatchDropped, tag.Upsert(KeyAction, name), tag.Upsert(KeyReason, reason))
}

func recordFeedback(name string, status model.Status) {
	record(MFeedbackPublished, tag.Upsert(KeyAction, name), tag.Upsert(KeyStatus, string(status)))
}

func recordReceived(name string, status model.Status) {
	record(MFeedbackReceived, tag.Upsert(KeyAction, name), tag.Upsert(KeyStatus, string(status)))
}
