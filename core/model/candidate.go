package model

// Method tags how a candidate score was produced.
type Method string

const (
	MethodModel     Method = "model"
	MethodHeuristic Method = "heuristic"
)

// Candidate is a truck scored and ranked as a dispatch option for a
// breakdown report. Produced fresh per request, never persisted.
type Candidate struct {
	TruckID    string  `json:"truck_id"`
	Truck      Truck   `json:"truck"`
	Score      float64 `json:"score"`
	DistanceKM float64 `json:"distance_km"`
	ETAMinutes int     `json:"eta_minutes"`
	Method     Method  `json:"method"`
}
