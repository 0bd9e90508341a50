package fleet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/swarmsync/fleetd/core/events"
	"github.com/swarmsync/fleetd/core/model"
	"github.com/swarmsync/fleetd/internal/eventbus"
)

// ErrNotFound is returned when a truck id is absent from the store.
var ErrNotFound = errors.New("truck not found")

// Store holds the fleet snapshot. Implementations must keep List stable in
// insertion order across calls with no intervening mutation.
type Store interface {
	List() []model.Truck
	Get(id string) (model.Truck, error)
	UpdateStatus(id string, status model.TruckStatus) error
	Summary() Summary
}

// Summary aggregates the fleet by status.
type Summary struct {
	Total    int                       `json:"total"`
	ByStatus map[model.TruckStatus]int `json:"by_status"`
	AvgFuel  float64                   `json:"avg_fuel"`
}

// InMemory is the in-memory Store used by the demo deployment. Mutations are
// visible to subsequent List calls; nothing survives a restart beyond the
// seed file.
type InMemory struct {
	mu     sync.RWMutex
	order  []string
	trucks map[string]model.Truck
	bus    eventbus.EventBus
}

// NewInMemory builds a store from the given trucks, preserving their order.
// Duplicate or invalid records are rejected.
func NewInMemory(trucks []model.Truck, bus eventbus.EventBus) (*InMemory, error) {
	s := &InMemory{trucks: make(map[string]model.Truck, len(trucks)), bus: bus}
	for _, t := range trucks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("seed fleet: %w", err)
		}
		if _, dup := s.trucks[t.ID]; dup {
			return nil, fmt.Errorf("seed fleet: duplicate truck id %s", t.ID)
		}
		s.trucks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return s, nil
}

// List returns the current snapshot in insertion order.
func (s *InMemory) List() []model.Truck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Truck, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.trucks[id])
	}
	return out
}

// Get returns a single truck by id.
func (s *InMemory) Get(id string) (model.Truck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trucks[id]
	if !ok {
		return model.Truck{}, ErrNotFound
	}
	return t, nil
}

// UpdateStatus mutates the status of a known truck. The new status must be a
// member of the enumerated set.
func (s *InMemory) UpdateStatus(id string, status model.TruckStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	s.mu.Lock()
	t, ok := s.trucks[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	prev := t.Status
	t.Status = status
	s.trucks[id] = t
	s.mu.Unlock()

	if s.bus != nil && prev != status {
		s.bus.Publish(events.StatusEvent{TruckID: id, From: prev, To: status, Time: time.Now().UTC()})
	}
	return nil
}

// Summary aggregates counts by status and the mean fuel level.
func (s *InMemory) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{Total: len(s.order), ByStatus: make(map[model.TruckStatus]int)}
	fuels := make([]float64, 0, len(s.order))
	for _, id := range s.order {
		t := s.trucks[id]
		sum.ByStatus[t.Status]++
		fuels = append(fuels, t.Fuel)
	}
	if len(fuels) > 0 {
		sum.AvgFuel = stat.Mean(fuels, nil)
	}
	return sum
}
