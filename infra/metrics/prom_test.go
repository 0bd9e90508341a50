package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/swarmsync/fleetd/core/metrics"
	"github.com/swarmsync/fleetd/core/model"
)

func TestPromSinkRecordRanking(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordRanking([]coremetrics.RankingResult{
		{TruckID: "T0", Urgency: model.UrgencyHigh, Method: model.MethodModel, Score: 0.95, DistanceKM: 1.2, Time: time.Now()},
		{TruckID: "T1", Urgency: model.UrgencyHigh, Method: model.MethodHeuristic, Score: 0.8, DistanceKM: 3.4, Time: time.Now()},
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.rankings.WithLabelValues("high", "model")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.rankings.WithLabelValues("high", "heuristic")))
}

func TestPromSinkRecordRoutingAndDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordRouting(coremetrics.RoutingEvent{Fallback: true}))
	require.NoError(t, sink.RecordRouting(coremetrics.RoutingEvent{Fallback: true}))
	require.NoError(t, sink.RecordDispatch(coremetrics.DispatchEvent{Action: "started"}))
	require.NoError(t, sink.RecordFleetSize(10))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.routing.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.dispatches.WithLabelValues("started")))
	assert.Equal(t, 10.0, testutil.ToFloat64(sink.fleet))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	// A second sink on the same registry reuses the existing collectors.
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordFleetSize(3))
}

func TestMultiSinkForwards(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	multi := NewMultiSink(prom, coremetrics.NopSink{})
	require.NoError(t, multi.RecordRanking([]coremetrics.RankingResult{
		{TruckID: "T0", Urgency: model.UrgencyLow, Method: model.MethodHeuristic, Score: 0.5},
	}))
	require.NoError(t, multi.RecordRouting(coremetrics.RoutingEvent{Fallback: false}))
	require.NoError(t, multi.RecordDispatch(coremetrics.DispatchEvent{Action: "completed"}))
	require.NoError(t, multi.RecordFleetSize(7))

	assert.Equal(t, 1.0, testutil.ToFloat64(prom.rankings.WithLabelValues("low", "heuristic")))
	assert.Equal(t, 7.0, testutil.ToFloat64(prom.fleet))
}

func TestInfluxFallbackToNop(t *testing.T) {
	sink := NewInfluxSinkWithFallback("http://127.0.0.1:1", "token", "org", "bucket")
	_, isNop := sink.(coremetrics.NopSink)
	assert.True(t, isNop)
}
