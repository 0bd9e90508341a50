package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/swarmsync/fleetd/core/metrics"
	coremodel "github.com/swarmsync/fleetd/core/model"
)

const osrmBody = `{
	"code": "Ok",
	"routes": [{
		"distance": 4210.5,
		"duration": 612.0,
		"geometry": {
			"coordinates": [[73.8567, 18.5204], [73.8601, 18.5230], [73.8650, 18.5290]]
		}
	}]
}`

func TestOSRMRoute(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, osrmBody)
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, "")
	route, err := p.Route(context.Background(),
		coremodel.Position{Lat: 18.5204, Lng: 73.8567},
		coremodel.Position{Lat: 18.5290, Lng: 73.8650})
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/route/v1/driving/73.856700,18.520400;73.865000,18.529000")
	require.Len(t, route.Points, 3)
	assert.InDelta(t, 18.5204, route.Points[0].Lat, 1e-9)
	assert.InDelta(t, 73.8567, route.Points[0].Lng, 1e-9)
	assert.InDelta(t, 4.2105, route.DistanceKM, 1e-6)
	assert.InDelta(t, 10.2, route.DurationMin, 1e-6)
	assert.False(t, route.Fallback)
}

func TestOSRMRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, osrmBody)
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, "")
	_, err := p.Route(context.Background(),
		coremodel.Position{Lat: 18.52, Lng: 73.85},
		coremodel.Position{Lat: 18.53, Lng: 73.86})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOSRMDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, "")
	_, err := p.Route(context.Background(),
		coremodel.Position{Lat: 18.52, Lng: 73.85},
		coremodel.Position{Lat: 18.53, Lng: 73.86})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOSRMBadCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": "NoRoute", "routes": []}`)
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, "")
	_, err := p.Route(context.Background(),
		coremodel.Position{Lat: 18.52, Lng: 73.85},
		coremodel.Position{Lat: 18.53, Lng: 73.86})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoRoute")
}

type failingProvider struct{}

func (failingProvider) Route(context.Context, coremodel.Position, coremodel.Position) (coremodel.Route, error) {
	return coremodel.Route{}, fmt.Errorf("upstream down")
}

type captureSink struct {
	coremetrics.NopSink
	events []coremetrics.RoutingEvent
}

func (c *captureSink) RecordRouting(ev coremetrics.RoutingEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func TestFallbackStraightLine(t *testing.T) {
	sink := &captureSink{}
	p := NewFallbackProvider(failingProvider{}, sink)

	from := coremodel.Position{Lat: 18.5204, Lng: 73.8567}
	to := coremodel.Position{Lat: 18.5600, Lng: 73.9000}
	route, err := p.Route(context.Background(), from, to)
	require.NoError(t, err)

	assert.True(t, route.Fallback)
	require.Len(t, route.Points, fallbackSegments+1)
	assert.Equal(t, from, route.Points[0])
	assert.Equal(t, to, route.Points[len(route.Points)-1])
	assert.Greater(t, route.DistanceKM, 0.0)
	assert.GreaterOrEqual(t, route.DurationMin, 5.0)

	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].Fallback)
}

func TestFallbackPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, osrmBody)
	}))
	defer srv.Close()

	sink := &captureSink{}
	p := NewFallbackProvider(NewOSRMProvider(srv.URL, ""), sink)
	route, err := p.Route(context.Background(),
		coremodel.Position{Lat: 18.52, Lng: 73.85},
		coremodel.Position{Lat: 18.53, Lng: 73.86})
	require.NoError(t, err)
	assert.False(t, route.Fallback)
	require.Len(t, sink.events, 1)
	assert.False(t, sink.events[0].Fallback)
}
