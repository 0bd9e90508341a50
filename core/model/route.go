package model

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route is an ordered geometry with its summary, as returned by the routing
// provider or synthesized by the straight-line fallback.
type Route struct {
	Points      []Position `json:"points"`
	DistanceKM  float64    `json:"distance_km"`
	DurationMin float64    `json:"duration_min"`
	Fallback    bool       `json:"fallback"` // true when the straight-line path was used
}
