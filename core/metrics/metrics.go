package metrics

import (
	"time"

	"github.com/swarmsync/fleetd/core/model"
)

// RankingResult is a per-candidate ranking outcome to be recorded.
type RankingResult struct {
	TruckID    string
	Urgency    model.Urgency
	Method     model.Method
	Score      float64
	DistanceKM float64
	Time       time.Time
}

// MetricsSink records ranking results for observability purposes.
type MetricsSink interface {
	RecordRanking(results []RankingResult) error
}

// RoutingEvent captures one call to the external routing provider.
type RoutingEvent struct {
	Fallback bool
	Duration time.Duration
	Time     time.Time
}

// RoutingRecorder is implemented by sinks able to record routing outcomes.
type RoutingRecorder interface {
	RecordRouting(ev RoutingEvent) error
}

// DispatchEvent captures a dispatch lifecycle transition.
type DispatchEvent struct {
	DispatchID string
	TruckID    string
	Action     string
	Time       time.Time
}

// DispatchRecorder records dispatch lifecycle transitions.
type DispatchRecorder interface {
	RecordDispatch(ev DispatchEvent) error
}

// FleetSizeRecorder records the size of the fleet snapshot.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRanking([]RankingResult) error { return nil }
func (NopSink) RecordRouting(RoutingEvent) error    { return nil }
func (NopSink) RecordDispatch(DispatchEvent) error  { return nil }
func (NopSink) RecordFleetSize(int) error           { return nil }
