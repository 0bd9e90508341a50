package fleet

import (
	"errors"
	"testing"

	"github.com/swarmsync/fleetd/core/events"
	"github.com/swarmsync/fleetd/core/model"
	"github.com/swarmsync/fleetd/internal/eventbus"
)

func testTrucks() []model.Truck {
	return []model.Truck{
		{ID: "T0", Driver: "A", Lat: 18.52, Lng: 73.85, Status: model.StatusAvailable, Fuel: 75, Capacity: 5, Load: 2},
		{ID: "T1", Driver: "B", Lat: 18.53, Lng: 73.84, Status: model.StatusActive, Fuel: 82, Capacity: 7.5},
		{ID: "T2", Driver: "C", Lat: 18.50, Lng: 73.80, Status: model.StatusAvailable, Fuel: 45, Capacity: 3.5, Load: 1.8},
	}
}

func TestListStableOrder(t *testing.T) {
	s, err := NewInMemory(testTrucks(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	first := s.List()
	second := s.List()
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 trucks, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order changed between calls at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	s, err := NewInMemory(testTrucks(), bus)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.UpdateStatus("T0", model.StatusDispatched); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get("T0")
	if err != nil || got.Status != model.StatusDispatched {
		t.Fatalf("status not applied: %v %v", got.Status, err)
	}
	select {
	case e := <-sub:
		se := e.(events.StatusEvent)
		if se.TruckID != "T0" || se.To != model.StatusDispatched {
			t.Fatalf("unexpected event %#v", se)
		}
	default:
		t.Fatal("expected a status event")
	}
}

func TestUpdateStatusUnknownID(t *testing.T) {
	s, _ := NewInMemory(testTrucks(), nil)
	before := s.List()
	err := s.UpdateStatus("T99", model.StatusAvailable)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	after := s.List()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("snapshot changed after failed update")
		}
	}
}

func TestUpdateStatusInvalid(t *testing.T) {
	s, _ := NewInMemory(testTrucks(), nil)
	if err := s.UpdateStatus("T0", "teleporting"); err == nil {
		t.Fatal("expected error for illegal status")
	}
}

func TestSummary(t *testing.T) {
	s, _ := NewInMemory(testTrucks(), nil)
	sum := s.Summary()
	if sum.Total != 3 {
		t.Fatalf("expected total 3, got %d", sum.Total)
	}
	if sum.ByStatus[model.StatusAvailable] != 2 || sum.ByStatus[model.StatusActive] != 1 {
		t.Fatalf("unexpected counts %v", sum.ByStatus)
	}
	want := (75.0 + 82.0 + 45.0) / 3.0
	if diff := sum.AvgFuel - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("avg fuel %v, want %v", sum.AvgFuel, want)
	}
}

func TestDuplicateSeedRejected(t *testing.T) {
	trucks := testTrucks()
	trucks = append(trucks, trucks[0])
	if _, err := NewInMemory(trucks, nil); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadSeedDefault(t *testing.T) {
	trucks, err := LoadSeed("")
	if err != nil {
		t.Fatalf("load embedded seed: %v", err)
	}
	if len(trucks) != 10 {
		t.Fatalf("expected 10 seed trucks, got %d", len(trucks))
	}
	if trucks[0].ID != "T0" {
		t.Fatalf("seed order broken, first id %s", trucks[0].ID)
	}
}
