package rank

import (
	"github.com/swarmsync/fleetd/core/geo"
	"github.com/swarmsync/fleetd/core/model"
)

// Scorer produces unsorted per-truck candidates for one breakdown report.
// Implementations must return candidates in the order the trucks were given
// so that ties keep the fleet order after the stable sort.
type Scorer interface {
	Name() string
	Score(report model.BreakdownReport, trucks []model.Truck) []model.Candidate
}

// Heuristic score weights. Distance dominates so that fuel level can only
// reorder trucks that are within a few kilometers of each other.
const (
	distanceWeight = 0.9
	fuelWeight     = 0.1
	// distanceCapKM is the distance beyond which the distance component
	// bottoms out at zero.
	distanceCapKM = 50.0
)

// HeuristicScorer scores trucks from haversine distance and fuel level only.
// It is the startup fallback when no model artifact is loadable and the base
// layer under the model scorer.
type HeuristicScorer struct{}

func (HeuristicScorer) Name() string { return "heuristic" }

// Score computes one candidate per truck.
func (HeuristicScorer) Score(report model.BreakdownReport, trucks []model.Truck) []model.Candidate {
	out := make([]model.Candidate, 0, len(trucks))
	for _, t := range trucks {
		d := geo.Haversine(t.Lat, t.Lng, report.Lat, report.Lng)
		capped := d
		if capped > distanceCapKM {
			capped = distanceCapKM
		}
		score := distanceWeight*(distanceCapKM-capped)/distanceCapKM + fuelWeight*t.Fuel/100
		out = append(out, model.Candidate{
			TruckID:    t.ID,
			Truck:      t,
			Score:      score,
			DistanceKM: d,
			ETAMinutes: geo.ETAMinutes(d),
			Method:     model.MethodHeuristic,
		})
	}
	return out
}
