package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/swarmsync/fleetd/core/metrics"
)

// PromSink records ranking and dispatch events in Prometheus metrics.
type PromSink struct {
	rankings   *prometheus.CounterVec
	scores     *prometheus.HistogramVec
	routing    *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	fleet      prometheus.Gauge
}

// NewPromSink registers metrics on the default Prometheus registerer. The
// Prometheus server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rankings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rank_candidates_total",
		Help: "Total number of ranked candidates",
	}, []string{"urgency", "method"})
	scores := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rank_candidate_score",
		Help:    "Distribution of candidate scores",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"method"})
	routing := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_requests_total",
		Help: "Routing provider calls, split by fallback usage",
	}, []string{"fallback"})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_events_total",
		Help: "Dispatch lifecycle transitions",
	}, []string{"action"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_trucks_total",
		Help: "Number of trucks in the fleet snapshot",
	})

	collectors := []prometheus.Collector{rankings, scores, routing, dispatches, fleet}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	return &PromSink{
		rankings:   collectors[0].(*prometheus.CounterVec),
		scores:     collectors[1].(*prometheus.HistogramVec),
		routing:    collectors[2].(*prometheus.CounterVec),
		dispatches: collectors[3].(*prometheus.CounterVec),
		fleet:      collectors[4].(prometheus.Gauge),
	}, nil
}

// RecordRanking increments the counter and observes the score for each result.
func (s *PromSink) RecordRanking(res []coremetrics.RankingResult) error {
	for _, r := range res {
		s.rankings.WithLabelValues(string(r.Urgency), string(r.Method)).Inc()
		s.scores.WithLabelValues(string(r.Method)).Observe(r.Score)
	}
	return nil
}

// RecordRouting counts a routing call.
func (s *PromSink) RecordRouting(ev coremetrics.RoutingEvent) error {
	s.routing.WithLabelValues(strconv.FormatBool(ev.Fallback)).Inc()
	return nil
}

// RecordDispatch counts a dispatch lifecycle transition.
func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	s.dispatches.WithLabelValues(ev.Action).Inc()
	return nil
}

// RecordFleetSize sets the fleet gauge.
func (s *PromSink) RecordFleetSize(size int) error {
	s.fleet.Set(float64(size))
	return nil
}
