package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/swarmsync/fleetd/core/events"
	"github.com/swarmsync/fleetd/infra/logger"
	"github.com/swarmsync/fleetd/internal/eventbus"
)

// Pump subscribes to the event bus and forwards fleet events to MQTT topics.
// Topics are rooted at the configured prefix:
//
//	<prefix>/truck/<id>/status
//	<prefix>/truck/<id>/position
//	<prefix>/dispatch/<id>/state
type Pump struct {
	pub    Publisher
	bus    eventbus.EventBus
	prefix string
	log    logger.Logger
}

// NewPump wires a publisher to the event bus. An empty prefix defaults to
// "fleet".
func NewPump(pub Publisher, bus eventbus.EventBus, prefix string) *Pump {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "fleet"
	}
	return &Pump{pub: pub, bus: bus, prefix: prefix, log: logger.New("telemetry")}
}

// Run forwards events until the context is cancelled or the bus closes.
func (p *Pump) Run(ctx context.Context) {
	sub := p.bus.Subscribe()
	defer p.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			p.forward(ev)
		}
	}
}

func (p *Pump) forward(ev eventbus.Event) {
	var (
		topic   string
		payload interface{}
	)
	switch e := ev.(type) {
	case events.StatusEvent:
		topic = fmt.Sprintf("%s/truck/%s/status", p.prefix, e.TruckID)
		payload = map[string]interface{}{
			"truck_id": e.TruckID,
			"from":     e.From,
			"to":       e.To,
			"time":     e.Time,
		}
	case events.PositionEvent:
		topic = fmt.Sprintf("%s/truck/%s/position", p.prefix, e.TruckID)
		payload = map[string]interface{}{
			"dispatch_id": e.DispatchID,
			"lat":         e.Position.Lat,
			"lng":         e.Position.Lng,
			"step":        e.Step,
			"total":       e.Total,
			"time":        e.Time,
		}
	case events.DispatchEvent:
		topic = fmt.Sprintf("%s/dispatch/%s/state", p.prefix, e.DispatchID)
		payload = map[string]interface{}{
			"dispatch_id": e.DispatchID,
			"truck_id":    e.TruckID,
			"action":      e.Action,
			"time":        e.Time,
		}
	default:
		return
	}

	b, err := json.Marshal(payload)
	if err != nil {
		p.log.Errorf("marshal telemetry payload: %v", err)
		return
	}
	if err := p.pub.Publish(topic, b); err != nil {
		p.log.Errorf("publish %s: %v", topic, err)
	}
}
