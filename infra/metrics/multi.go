package metrics

import coremetrics "github.com/swarmsync/fleetd/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRanking forwards the results to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordRanking(res []coremetrics.RankingResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordRanking(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordRouting forwards routing outcomes when supported by the sink.
func (m *MultiSink) RecordRouting(ev coremetrics.RoutingEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.RoutingRecorder); ok {
			if err := rec.RecordRouting(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDispatch forwards dispatch transitions when supported by the sink.
func (m *MultiSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.DispatchRecorder); ok {
			if err := rec.RecordDispatch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleetSize forwards fleet size metrics when supported by the sink.
func (m *MultiSink) RecordFleetSize(size int) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(coremetrics.FleetSizeRecorder); ok {
			if err := fr.RecordFleetSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}
