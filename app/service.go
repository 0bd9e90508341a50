// Package app assembles the fleet dispatch service from its parts.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/swarmsync/fleetd/api"
	"github.com/swarmsync/fleetd/config"
	"github.com/swarmsync/fleetd/core/dispatch"
	"github.com/swarmsync/fleetd/core/fleet"
	"github.com/swarmsync/fleetd/core/forest"
	coremetrics "github.com/swarmsync/fleetd/core/metrics"
	"github.com/swarmsync/fleetd/core/rank"
	coreroute "github.com/swarmsync/fleetd/core/routing"
	"github.com/swarmsync/fleetd/infra/logger"
	"github.com/swarmsync/fleetd/infra/metrics"
	"github.com/swarmsync/fleetd/infra/routing"
	"github.com/swarmsync/fleetd/infra/telemetry"
	"github.com/swarmsync/fleetd/internal/eventbus"
)

// Service orchestrates the fleet store, ranking engine, dispatch manager and
// HTTP surface.
type Service struct {
	cfg         *config.Config
	Store       *fleet.InMemory
	Engine      *rank.Engine
	Dispatcher  *dispatch.Manager
	bus         eventbus.EventBus
	sink        coremetrics.MetricsSink
	influx      *metrics.InfluxSink
	publisher   telemetry.Publisher
	pump        *telemetry.Pump
	modelLoaded bool
	log         logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	bus := eventbus.New()

	trucks, err := fleet.LoadSeed(cfg.Fleet.SeedPath)
	if err != nil {
		return nil, fmt.Errorf("seed fleet: %w", err)
	}
	store, err := fleet.NewInMemory(trucks, bus)
	if err != nil {
		return nil, fmt.Errorf("fleet store: %w", err)
	}

	svc := &Service{cfg: cfg, Store: store, bus: bus, log: log}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PromEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxURL != "" {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL,
			cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			svc.influx = is
		}
		sinks = append(sinks, sink)
	}
	switch len(sinks) {
	case 0:
		svc.sink = coremetrics.NopSink{}
	case 1:
		svc.sink = sinks[0]
	default:
		svc.sink = metrics.NewMultiSink(sinks...)
	}
	if fr, ok := svc.sink.(coremetrics.FleetSizeRecorder); ok {
		if err := fr.RecordFleetSize(len(trucks)); err != nil {
			log.Warnf("record fleet size: %v", err)
		}
	}

	// The model artifact is optional; ranking degrades to the heuristic when
	// it cannot be loaded.
	var scorer rank.Scorer = rank.HeuristicScorer{}
	if cfg.Model.Path != "" {
		artifact, err := forest.Load(cfg.Model.Path)
		if err != nil {
			log.Warnf("model artifact unavailable, using heuristic: %v", err)
		} else {
			scorer = rank.NewModelScorer(artifact, logger.New("model"))
			svc.modelLoaded = true
		}
	}
	svc.Engine = rank.NewEngine(scorer, 0, logger.New("rank"))

	var provider coreroute.Provider = routing.NewOSRMProvider(cfg.Routing.BaseURL, cfg.Routing.APIKey)
	provider = routing.NewFallbackProvider(provider, svc.sink)

	svc.Dispatcher = dispatch.NewManager(store, provider, bus, svc.sink,
		cfg.DispatchTick(), logger.New("dispatch"))

	if cfg.Telemetry.Enabled {
		pub, err := telemetry.NewPahoPublisher(cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
		svc.pump = telemetry.NewPump(pub, bus, cfg.Telemetry.TopicPrefix)
	}

	return svc, nil
}

// Run starts the HTTP servers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.pump != nil {
		go s.pump.Run(ctx)
	}
	if s.cfg.Metrics.PromEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PromAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	server := api.NewServer(s.Store, s.Engine, s.Dispatcher, s.sink, s.modelLoaded)
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: server.Handler()}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(s.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Dispatcher.Close()
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if s.influx != nil {
		s.influx.Close()
	}
	s.bus.Close()
	return nil
}
