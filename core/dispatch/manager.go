// Package dispatch assigns trucks to breakdowns and tracks their progress
// along the computed route until arrival or cancellation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swarmsync/fleetd/core/events"
	"github.com/swarmsync/fleetd/core/fleet"
	"github.com/swarmsync/fleetd/core/logger"
	coremetrics "github.com/swarmsync/fleetd/core/metrics"
	"github.com/swarmsync/fleetd/core/model"
	"github.com/swarmsync/fleetd/core/routing"
	"github.com/swarmsync/fleetd/internal/eventbus"
)

var (
	// ErrNotFound is returned when a dispatch id is unknown.
	ErrNotFound = errors.New("dispatch not found")
	// ErrTruckBusy is returned when the target truck cannot take a dispatch.
	ErrTruckBusy = errors.New("truck not available for dispatch")
	// ErrFinished is returned when cancelling a dispatch that already ended.
	ErrFinished = errors.New("dispatch already finished")
)

// State is the lifecycle state of a dispatch.
type State string

const (
	StateEnroute   State = "enroute"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Dispatch is a point-in-time snapshot of one tracked assignment.
type Dispatch struct {
	ID        string                `json:"id"`
	TruckID   string                `json:"truck_id"`
	Breakdown model.BreakdownReport `json:"breakdown"`
	Route     model.Route           `json:"route"`
	State     State                 `json:"state"`
	Step      int                   `json:"step"`
	Position  model.Position        `json:"position"`
	StartedAt time.Time             `json:"started_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type tracked struct {
	snap   Dispatch
	cancel context.CancelFunc
}

// Manager starts and supervises dispatch trackers. Each dispatch runs a
// goroutine stepping through the route at a fixed cadence, publishing
// position updates on the event bus.
type Manager struct {
	store    fleet.Store
	provider routing.Provider
	bus      eventbus.EventBus
	sink     coremetrics.MetricsSink
	tick     time.Duration
	log      logger.Logger

	mu         sync.RWMutex
	dispatches map[string]*tracked
	wg         sync.WaitGroup
}

// NewManager builds a Manager. tick is the cadence at which trackers advance
// one route point; a nil sink disables metrics.
func NewManager(store fleet.Store, provider routing.Provider, bus eventbus.EventBus, sink coremetrics.MetricsSink, tick time.Duration, log logger.Logger) *Manager {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if tick <= 0 {
		tick = time.Second
	}
	return &Manager{
		store:      store,
		provider:   provider,
		bus:        bus,
		sink:       sink,
		tick:       tick,
		log:        log,
		dispatches: make(map[string]*tracked),
	}
}

// Start assigns the given truck to the breakdown and begins tracking. The
// truck must be dispatchable; the routing provider supplies the route and the
// truck transitions to dispatched for the duration of the run.
func (m *Manager) Start(ctx context.Context, truckID string, report model.BreakdownReport) (Dispatch, error) {
	truck, err := m.store.Get(truckID)
	if err != nil {
		return Dispatch{}, err
	}
	if !truck.Dispatchable() {
		return Dispatch{}, fmt.Errorf("%w: truck %s is %s", ErrTruckBusy, truckID, truck.Status)
	}

	route, err := m.provider.Route(ctx,
		model.Position{Lat: truck.Lat, Lng: truck.Lng},
		model.Position{Lat: report.Lat, Lng: report.Lng})
	if err != nil {
		return Dispatch{}, fmt.Errorf("route truck %s: %w", truckID, err)
	}
	if len(route.Points) == 0 {
		return Dispatch{}, fmt.Errorf("route truck %s: empty route", truckID)
	}

	if err := m.store.UpdateStatus(truckID, model.StatusDispatched); err != nil {
		return Dispatch{}, err
	}

	now := time.Now().UTC()
	snap := Dispatch{
		ID:        uuid.NewString(),
		TruckID:   truckID,
		Breakdown: report,
		Route:     route,
		State:     StateEnroute,
		Step:      0,
		Position:  route.Points[0],
		StartedAt: now,
		UpdatedAt: now,
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.dispatches[snap.ID] = &tracked{snap: snap, cancel: cancel}
	m.mu.Unlock()

	m.publishLifecycle(snap.ID, truckID, "started", now)
	m.log.Infof("dispatch %s started: truck %s, %d route points, fallback=%t",
		snap.ID, truckID, len(route.Points), route.Fallback)

	m.wg.Add(1)
	go m.track(runCtx, snap.ID)
	return snap, nil
}

// Get returns a snapshot of one dispatch.
func (m *Manager) Get(id string) (Dispatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tr, ok := m.dispatches[id]
	if !ok {
		return Dispatch{}, ErrNotFound
	}
	return tr.snap, nil
}

// List returns snapshots of all dispatches, newest first.
func (m *Manager) List() []Dispatch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Dispatch, 0, len(m.dispatches))
	for _, tr := range m.dispatches {
		out = append(out, tr.snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Cancel stops an enroute dispatch. The tracker goroutine observes the
// cancellation and restores the truck to available.
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	tr, ok := m.dispatches[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if tr.snap.State != StateEnroute {
		return ErrFinished
	}
	tr.cancel()
	return nil
}

// Close cancels every running tracker and waits for them to stop.
func (m *Manager) Close() {
	m.mu.RLock()
	for _, tr := range m.dispatches {
		tr.cancel()
	}
	m.mu.RUnlock()
	m.wg.Wait()
}

// track advances the dispatch one route point per tick until the route is
// exhausted or the context is cancelled.
func (m *Manager) track(ctx context.Context, id string) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.finish(id, StateCancelled)
			return
		case <-ticker.C:
			if done := m.advance(id); done {
				m.finish(id, StateCompleted)
				return
			}
		}
	}
}

// advance moves the dispatch to the next route point and reports whether the
// final point has been reached.
func (m *Manager) advance(id string) bool {
	m.mu.Lock()
	tr, ok := m.dispatches[id]
	if !ok || tr.snap.State != StateEnroute {
		m.mu.Unlock()
		return true
	}
	total := len(tr.snap.Route.Points)
	if tr.snap.Step+1 >= total {
		m.mu.Unlock()
		return true
	}
	tr.snap.Step++
	tr.snap.Position = tr.snap.Route.Points[tr.snap.Step]
	tr.snap.UpdatedAt = time.Now().UTC()
	ev := events.PositionEvent{
		DispatchID: id,
		TruckID:    tr.snap.TruckID,
		Position:   tr.snap.Position,
		Step:       tr.snap.Step,
		Total:      total,
		Time:       tr.snap.UpdatedAt,
	}
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(ev)
	}
	return ev.Step+1 >= ev.Total
}

// finish records the terminal state and restores the truck. Completed trucks
// become active at the breakdown site; cancelled ones return to available.
func (m *Manager) finish(id string, state State) {
	m.mu.Lock()
	tr, ok := m.dispatches[id]
	if !ok || tr.snap.State != StateEnroute {
		m.mu.Unlock()
		return
	}
	tr.snap.State = state
	tr.snap.UpdatedAt = time.Now().UTC()
	truckID := tr.snap.TruckID
	m.mu.Unlock()

	status := model.StatusActive
	action := "completed"
	if state == StateCancelled {
		status = model.StatusAvailable
		action = "cancelled"
	}
	if err := m.store.UpdateStatus(truckID, status); err != nil {
		m.log.Errorf("dispatch %s: restore truck %s: %v", id, truckID, err)
	}
	m.publishLifecycle(id, truckID, action, time.Now().UTC())
	m.log.Infof("dispatch %s %s", id, action)
}

func (m *Manager) publishLifecycle(id, truckID, action string, at time.Time) {
	if m.bus != nil {
		m.bus.Publish(events.DispatchEvent{DispatchID: id, TruckID: truckID, Action: action, Time: at})
	}
	if rec, ok := m.sink.(coremetrics.DispatchRecorder); ok {
		if err := rec.RecordDispatch(coremetrics.DispatchEvent{
			DispatchID: id,
			TruckID:    truckID,
			Action:     action,
			Time:       at,
		}); err != nil {
			m.log.Warnf("record dispatch metric: %v", err)
		}
	}
}
