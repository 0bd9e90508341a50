// Package config loads the fleetd configuration from YAML or JSON files with
// optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/swarmsync/fleetd/infra/telemetry"
)

type Config struct {
	Server    ServerConfig     `json:"server"`
	Fleet     FleetConfig      `json:"fleet"`
	Model     ModelConfig      `json:"model"`
	Routing   RoutingConfig    `json:"routing"`
	Dispatch  DispatchConfig   `json:"dispatch"`
	Metrics   MetricsConfig    `json:"metrics"`
	Telemetry telemetry.Config `json:"telemetry"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Addr            string `json:"addr"`
	ShutdownTimeout int    `json:"shutdown_timeout_sec"`
}

// FleetConfig points at the seed fleet file. An empty path uses the embedded
// seed data.
type FleetConfig struct {
	SeedPath string `json:"seed_path"`
}

// ModelConfig points at the serialized classifier artifact. An empty path
// disables the model and ranking degrades to the heuristic.
type ModelConfig struct {
	Path string `json:"path"`
}

// RoutingConfig controls the external routing provider.
type RoutingConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

// DispatchConfig controls the server-side dispatch trackers.
type DispatchConfig struct {
	TickMS int `json:"tick_ms"`
}

// MetricsConfig selects the metric sinks. Prometheus and InfluxDB can be
// enabled independently.
type MetricsConfig struct {
	PromEnabled  bool   `json:"prom_enabled"`
	PromAddr     string `json:"prom_addr"`
	InfluxURL    string `json:"influx_url"`
	InfluxToken  string `json:"influx_token"`
	InfluxOrg    string `json:"influx_org"`
	InfluxBucket string `json:"influx_bucket"`
}

// SetDefaults fills in values for fields left empty by the config file.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10
	}
	if c.Routing.BaseURL == "" {
		c.Routing.BaseURL = "https://router.project-osrm.org"
	}
	if c.Dispatch.TickMS <= 0 {
		c.Dispatch.TickMS = 1000
	}
	if c.Metrics.PromAddr == "" {
		c.Metrics.PromAddr = ":9090"
	}
	if c.Telemetry.TopicPrefix == "" {
		c.Telemetry.TopicPrefix = "fleet"
	}
}

// Validate rejects configurations that cannot produce a working service.
func (c *Config) Validate() error {
	if c.Dispatch.TickMS < 10 {
		return fmt.Errorf("dispatch tick_ms too small: %d", c.Dispatch.TickMS)
	}
	if c.Telemetry.Enabled && c.Telemetry.Broker == "" {
		return fmt.Errorf("telemetry enabled without broker")
	}
	if c.Metrics.InfluxURL != "" && c.Metrics.InfluxBucket == "" {
		return fmt.Errorf("influx_url set without influx_bucket")
	}
	return nil
}

// DispatchTick returns the tracker cadence as a duration.
func (c *Config) DispatchTick() time.Duration {
	return time.Duration(c.Dispatch.TickMS) * time.Millisecond
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Load reads the configuration at path. Environment variables prefixed with
// FLEETD_ override file values, with "__" separating nested keys
// (FLEETD_SERVER__ADDR overrides server.addr).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FLEETD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fleetd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
