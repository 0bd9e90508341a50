package routing

import (
	"context"

	"github.com/swarmsync/fleetd/core/model"
)

// Provider returns a drivable route between two points. Implementations
// delegate to an external routing API; callers must treat failures as
// recoverable and fall back to a straight line.
type Provider interface {
	Route(ctx context.Context, from, to model.Position) (model.Route, error)
}
