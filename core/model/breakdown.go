package model

import "fmt"

// Urgency describes how quickly a breakdown needs assistance.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Valid reports whether u is one of the enumerated urgency levels.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// BreakdownReport is the ephemeral payload describing a vehicle failure.
// It only lives for the duration of one ranking request.
type BreakdownReport struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Urgency Urgency `json:"urgency"`
	Issue   string  `json:"issue,omitempty"`
}

// Validate checks coordinates against WGS84 ranges and the urgency enum.
// An empty urgency defaults to medium.
func (r *BreakdownReport) Validate() error {
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", r.Lat)
	}
	if r.Lng < -180 || r.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", r.Lng)
	}
	if r.Urgency == "" {
		r.Urgency = UrgencyMedium
	}
	if !r.Urgency.Valid() {
		return fmt.Errorf("unknown urgency %q", r.Urgency)
	}
	return nil
}
