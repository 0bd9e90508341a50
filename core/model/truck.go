package model

import "fmt"

// TruckStatus enumerates the lifecycle states of a fleet truck.
type TruckStatus string

const (
	StatusAvailable   TruckStatus = "available"
	StatusActive      TruckStatus = "active"
	StatusDispatched  TruckStatus = "dispatched"
	StatusMaintenance TruckStatus = "maintenance"
)

// Valid reports whether s is one of the enumerated statuses.
func (s TruckStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusActive, StatusDispatched, StatusMaintenance:
		return true
	}
	return false
}

// Truck represents a single vehicle in the fleet.
type Truck struct {
	ID       string      `json:"id"`
	Driver   string      `json:"driver"`
	Lat      float64     `json:"lat"`
	Lng      float64     `json:"lng"`
	Status   TruckStatus `json:"status"`
	Fuel     float64     `json:"fuel"`     // fuel level in percent, 0-100
	Type     string      `json:"type"`     // vehicle class, e.g. "Medium Truck"
	Capacity float64     `json:"capacity"` // cargo capacity in tonnes
	Load     float64     `json:"load"`     // current load in tonnes
	Cargo    string      `json:"cargo,omitempty"`
	Phone    string      `json:"phone,omitempty"`
}

// Validate checks that the truck record is sound.
func (t Truck) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("truck id is required")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("truck %s: unknown status %q", t.ID, t.Status)
	}
	if t.Fuel < 0 || t.Fuel > 100 {
		return fmt.Errorf("truck %s: fuel %v out of range", t.ID, t.Fuel)
	}
	if t.Capacity < 0 || t.Load < 0 {
		return fmt.Errorf("truck %s: negative load or capacity", t.ID)
	}
	return nil
}

// Dispatchable reports whether the truck can be considered for a breakdown.
// Overloaded trucks are excluded even when marked available.
func (t Truck) Dispatchable() bool {
	return t.Status == StatusAvailable && t.Load <= t.Capacity
}
