package events

import (
	"time"

	"github.com/swarmsync/fleetd/core/model"
)

// StatusEvent is published when a truck changes status.
type StatusEvent struct {
	TruckID string
	From    model.TruckStatus
	To      model.TruckStatus
	Time    time.Time
}

// DispatchEvent marks a dispatch lifecycle transition.
type DispatchEvent struct {
	DispatchID string
	TruckID    string
	Action     string // started, completed, cancelled
	Time       time.Time
}

// PositionEvent carries a truck position update emitted while a dispatch
// tracker steps along its route.
type PositionEvent struct {
	DispatchID string
	TruckID    string
	Position   model.Position
	Step       int
	Total      int
	Time       time.Time
}

// RoutingEvent records the outcome of an external routing call.
type RoutingEvent struct {
	DispatchID string
	Fallback   bool
	Err        error
	Time       time.Time
}
