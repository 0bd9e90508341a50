package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmsync/fleetd/core/events"
	"github.com/swarmsync/fleetd/core/model"
	"github.com/swarmsync/fleetd/internal/eventbus"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string][]byte
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{messages: make(map[string][]byte)}
}

func (r *recordingPublisher) Publish(topic string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[topic] = payload
	return nil
}

func (r *recordingPublisher) Disconnect() {}

func (r *recordingPublisher) get(topic string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.messages[topic]
	return b, ok
}

func TestPumpForwardsEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	pub := newRecordingPublisher()
	pump := NewPump(pub, bus, "fleet")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		pump.Run(ctx)
		close(done)
	}()

	// Give the pump time to subscribe before publishing.
	time.Sleep(10 * time.Millisecond)

	now := time.Now().UTC()
	bus.Publish(events.StatusEvent{TruckID: "T0", From: model.StatusAvailable, To: model.StatusDispatched, Time: now})
	bus.Publish(events.PositionEvent{DispatchID: "d1", TruckID: "T0", Position: model.Position{Lat: 18.52, Lng: 73.85}, Step: 1, Total: 5, Time: now})
	bus.Publish(events.DispatchEvent{DispatchID: "d1", TruckID: "T0", Action: "started", Time: now})

	require.Eventually(t, func() bool {
		_, ok := pub.get("fleet/dispatch/d1/state")
		return ok
	}, time.Second, 5*time.Millisecond)

	b, ok := pub.get("fleet/truck/T0/position")
	require.True(t, ok)
	var pos map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &pos))
	assert.Equal(t, "d1", pos["dispatch_id"])
	assert.InDelta(t, 18.52, pos["lat"].(float64), 1e-9)

	_, ok = pub.get("fleet/truck/T0/status")
	assert.True(t, ok)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop on cancel")
	}
}

func TestPumpStopsWhenBusCloses(t *testing.T) {
	bus := eventbus.New()
	pump := NewPump(newRecordingPublisher(), bus, "")

	done := make(chan struct{})
	go func() {
		pump.Run(context.Background())
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop on bus close")
	}
}
