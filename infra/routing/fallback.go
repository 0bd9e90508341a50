package routing

import (
	"context"
	"time"

	"github.com/swarmsync/fleetd/core/geo"
	coremetrics "github.com/swarmsync/fleetd/core/metrics"
	coremodel "github.com/swarmsync/fleetd/core/model"
	coreroute "github.com/swarmsync/fleetd/core/routing"
	"github.com/swarmsync/fleetd/infra/logger"
)

// fallbackSegments is the number of interpolation steps used when the
// external provider is unavailable. Matches the granularity of a typical
// short urban route so trackers step at a similar pace either way.
const fallbackSegments = 20

// FallbackProvider wraps another provider and degrades to a straight-line
// route when the wrapped provider fails. Every call outcome is recorded on
// the metrics sink.
type FallbackProvider struct {
	inner coreroute.Provider
	sink  coremetrics.MetricsSink
	log   logger.Logger
}

// NewFallbackProvider wraps inner with straight-line degradation. A nil sink
// disables metrics recording.
func NewFallbackProvider(inner coreroute.Provider, sink coremetrics.MetricsSink) *FallbackProvider {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &FallbackProvider{
		inner: inner,
		sink:  sink,
		log:   logger.New("routing"),
	}
}

// Route implements routing.Provider. It never returns an error unless the
// context is canceled: a failed upstream call yields a straight-line route
// with Fallback set.
func (p *FallbackProvider) Route(ctx context.Context, from, to coremodel.Position) (coremodel.Route, error) {
	start := time.Now()
	if p.inner != nil {
		route, err := p.inner.Route(ctx, from, to)
		if err == nil {
			p.record(false, time.Since(start))
			return route, nil
		}
		if ctx.Err() != nil {
			return coremodel.Route{}, ctx.Err()
		}
		p.log.Warnf("routing provider failed, using straight line: %v", err)
	}

	dist := geo.Haversine(from.Lat, from.Lng, to.Lat, to.Lng)
	route := coremodel.Route{
		Points:      geo.Line(from, to, fallbackSegments),
		DistanceKM:  dist,
		DurationMin: float64(geo.ETAMinutes(dist)),
		Fallback:    true,
	}
	p.record(true, time.Since(start))
	return route, nil
}

func (p *FallbackProvider) record(fallback bool, d time.Duration) {
	if rec, ok := p.sink.(coremetrics.RoutingRecorder); ok {
		if err := rec.RecordRouting(coremetrics.RoutingEvent{
			Fallback: fallback,
			Duration: d,
			Time:     time.Now(),
		}); err != nil {
			p.log.Warnf("record routing metric: %v", err)
		}
	}
}
