package rank

import (
	"testing"

	"github.com/swarmsync/fleetd/core/model"
	"github.com/swarmsync/fleetd/infra/logger"
)

func fleetSnapshot() []model.Truck {
	return []model.Truck{
		{ID: "T0", Lat: 18.5204, Lng: 73.8567, Status: model.StatusAvailable, Fuel: 75, Capacity: 5, Load: 2.3},
		{ID: "T1", Lat: 18.5314, Lng: 73.8446, Status: model.StatusAvailable, Fuel: 82, Capacity: 7.5},
		{ID: "T2", Lat: 18.5074, Lng: 73.8077, Status: model.StatusActive, Fuel: 45, Capacity: 3.5, Load: 1.8},
		{ID: "T3", Lat: 18.5642, Lng: 73.7769, Status: model.StatusAvailable, Fuel: 91, Capacity: 6},
		{ID: "T4", Lat: 18.4977, Lng: 73.8256, Status: model.StatusDispatched, Fuel: 38, Capacity: 8, Load: 6.2},
		{ID: "T5", Lat: 18.5435, Lng: 73.9076, Status: model.StatusMaintenance, Fuel: 67, Capacity: 4.5},
	}
}

func report() model.BreakdownReport {
	return model.BreakdownReport{Lat: 18.5204, Lng: 73.8567, Urgency: model.UrgencyHigh}
}

func TestRankSortedDescending(t *testing.T) {
	e := NewEngine(HeuristicScorer{}, 10, logger.NopLogger{})
	cands := e.Rank(report(), fleetSnapshot())
	if len(cands) == 0 {
		t.Fatal("expected candidates")
	}
	for i := 1; i < len(cands); i++ {
		if cands[i].Score > cands[i-1].Score {
			t.Fatalf("not sorted at %d: %v > %v", i, cands[i].Score, cands[i-1].Score)
		}
	}
}

func TestRankNearestFirstOnHeuristicPath(t *testing.T) {
	e := NewEngine(HeuristicScorer{}, 10, logger.NopLogger{})
	cands := e.Rank(report(), fleetSnapshot())
	for _, c := range cands[1:] {
		if c.DistanceKM < cands[0].DistanceKM {
			t.Fatalf("first candidate %s is not the nearest (%.2f vs %.2f for %s)",
				cands[0].TruckID, cands[0].DistanceKM, c.DistanceKM, c.TruckID)
		}
	}
	if cands[0].TruckID != "T0" {
		t.Fatalf("expected T0 first, got %s", cands[0].TruckID)
	}
}

func TestRankDeterministic(t *testing.T) {
	e := NewEngine(HeuristicScorer{}, 10, logger.NopLogger{})
	first := e.Rank(report(), fleetSnapshot())
	second := e.Rank(report(), fleetSnapshot())
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].TruckID != second[i].TruckID || first[i].Score != second[i].Score {
			t.Fatalf("order changed at %d: %s vs %s", i, first[i].TruckID, second[i].TruckID)
		}
	}
}

func TestRankFiltersUnavailable(t *testing.T) {
	e := NewEngine(HeuristicScorer{}, 10, logger.NopLogger{})
	cands := e.Rank(report(), fleetSnapshot())
	for _, c := range cands {
		if c.Truck.Status != model.StatusAvailable {
			t.Fatalf("truck %s with status %s should not be a candidate", c.TruckID, c.Truck.Status)
		}
	}
}

func TestRankExcludesOverloaded(t *testing.T) {
	trucks := []model.Truck{
		{ID: "ok", Lat: 18.52, Lng: 73.85, Status: model.StatusAvailable, Fuel: 50, Capacity: 5, Load: 4},
		{ID: "over", Lat: 18.52, Lng: 73.85, Status: model.StatusAvailable, Fuel: 50, Capacity: 5, Load: 6},
	}
	e := NewEngine(HeuristicScorer{}, 10, logger.NopLogger{})
	cands := e.Rank(report(), trucks)
	if len(cands) != 1 || cands[0].TruckID != "ok" {
		t.Fatalf("overloaded truck should be excluded, got %v", cands)
	}
}

func TestRankEmptyFleet(t *testing.T) {
	e := NewEngine(HeuristicScorer{}, 10, logger.NopLogger{})
	cands := e.Rank(report(), nil)
	if cands == nil || len(cands) != 0 {
		t.Fatalf("expected empty list, got %v", cands)
	}
}

func TestRankStableTieBreak(t *testing.T) {
	trucks := []model.Truck{
		{ID: "first", Lat: 18.52, Lng: 73.85, Status: model.StatusAvailable, Fuel: 50, Capacity: 5},
		{ID: "second", Lat: 18.52, Lng: 73.85, Status: model.StatusAvailable, Fuel: 50, Capacity: 5},
	}
	e := NewEngine(HeuristicScorer{}, 10, logger.NopLogger{})
	cands := e.Rank(model.BreakdownReport{Lat: 18.52, Lng: 73.85, Urgency: model.UrgencyLow}, trucks)
	if cands[0].TruckID != "first" || cands[1].TruckID != "second" {
		t.Fatalf("tie should keep fleet order, got %s then %s", cands[0].TruckID, cands[1].TruckID)
	}
}

func TestRankTruncatesToLimit(t *testing.T) {
	e := NewEngine(HeuristicScorer{}, 0, logger.NopLogger{})
	cands := e.Rank(report(), fleetSnapshot())
	if len(cands) > DefaultMaxCandidates {
		t.Fatalf("expected at most %d candidates, got %d", DefaultMaxCandidates, len(cands))
	}
}
