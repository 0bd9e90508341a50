// Package routing implements the external routing collaborator against an
// OSRM-compatible HTTP API.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	coremodel "github.com/swarmsync/fleetd/core/model"
	"github.com/swarmsync/fleetd/infra/logger"
)

// OSRMProvider fetches driving routes from an OSRM server.
type OSRMProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     logger.Logger
}

// NewOSRMProvider creates a provider for the given base URL. The API key is
// optional; public OSRM instances do not require one.
func NewOSRMProvider(baseURL, apiKey string) *OSRMProvider {
	return &OSRMProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logger.New("osrm"),
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Route implements routing.Provider.
func (p *OSRMProvider) Route(ctx context.Context, from, to coremodel.Position) (coremodel.Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		p.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	resp, err := p.doWithRetry(ctx, url)
	if err != nil {
		return coremodel.Route{}, fmt.Errorf("osrm route: %w", err)
	}
	defer resp.Body.Close()

	var parsed osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return coremodel.Route{}, fmt.Errorf("osrm route: decode: %w", err)
	}
	if parsed.Code != "" && parsed.Code != "Ok" {
		return coremodel.Route{}, fmt.Errorf("osrm route: code %s", parsed.Code)
	}
	if len(parsed.Routes) == 0 {
		return coremodel.Route{}, errors.New("osrm route: no routes returned")
	}

	r := parsed.Routes[0]
	points := make([]coremodel.Position, 0, len(r.Geometry.Coordinates))
	for _, pair := range r.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		points = append(points, coremodel.Position{Lng: pair[0], Lat: pair[1]})
	}
	if len(points) == 0 {
		return coremodel.Route{}, errors.New("osrm route: empty geometry")
	}
	return coremodel.Route{
		Points:      points,
		DistanceKM:  r.Distance / 1000,
		DurationMin: r.Duration / 60,
	}, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) using exponential backoff while respecting context cancellation.
func (p *OSRMProvider) doWithRetry(ctx context.Context, url string) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := p.do(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}
		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		p.log.Debugf("retrying routing call (attempt %d): %v", attempt, err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (p *OSRMProvider) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", p.apiKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}
