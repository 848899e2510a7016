// Package config provides configuration loading for Leshy using Viper.
// Configuration is loaded from a TOML file with automatic environment
// variable binding.
//
// Environment variables use the LESHY_ prefix and underscore-separated
// keys:
//   - LESHY_LISTEN        -> listen
//   - LESHY_DEVICE_FILE   -> device_file
//   - LESHY_CACHE_SIZE    -> cache.size
//   - LESHY_API_ENABLED   -> api.enabled
package config

import (
	"os"
	"strings"
)

// RoutePolicy describes how a zone's traffic should be routed once a
// response is forwarded.
type RoutePolicy string

const (
	RouteNone    RoutePolicy = "none"    // no route installed
	RouteGateway RoutePolicy = "gateway" // install via a configured gateway IP
	RouteDevice  RoutePolicy = "device"  // install via the tunnel device
)

// CacheConfig controls the response cache.
type CacheConfig struct {
	Size               int `mapstructure:"size"                 toml:"size"`
	NegativeTTLSeconds int `mapstructure:"negative_ttl_seconds"  toml:"negative_ttl_seconds"`
}

// StaticRoute is a route installed unconditionally at startup.
type StaticRoute struct {
	Destination string `mapstructure:"destination" toml:"destination"` // CIDR
	Via         string `mapstructure:"via"          toml:"via"`         // gateway IP; empty means via device
}

// ZoneConfig is a single zone entry: a set of match patterns, an ordered
// upstream preference list, and a route policy applied to answers that
// this zone selects.
type ZoneConfig struct {
	Patterns  []string    `mapstructure:"patterns"  toml:"patterns"`
	Upstreams []string    `mapstructure:"upstreams" toml:"upstreams"`
	Route     RoutePolicy `mapstructure:"route"     toml:"route"`

	// Gateway is the next-hop IP used when Route is RouteGateway.
	Gateway string `mapstructure:"gateway" toml:"gateway"`

	// Exclusive is a matching-mode flag, orthogonal to Route: an
	// exclusive zone matches every name not claimed by an earlier zone
	// and not present in Exclude, regardless of which next hop Route
	// names (it may still be "gateway", "device", or "none").
	Exclusive bool `mapstructure:"exclusive" toml:"exclusive"`

	// Exclude holds exclude-list patterns (same grammar as Patterns),
	// consulted only when Exclusive is true.
	Exclude []string `mapstructure:"exclude" toml:"exclude"`
}

// APIConfig controls the read-only introspection HTTP API.
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Listen  string `mapstructure:"listen"  toml:"listen"`
}

// Config is the root configuration structure.
type Config struct {
	Listen                 string `mapstructure:"listen"                   toml:"listen"`
	DeviceFile             string `mapstructure:"device_file"              toml:"device_file"`
	RouteAggregationPrefix int    `mapstructure:"route_aggregation_prefix" toml:"route_aggregation_prefix"`
	LogLevel               string `mapstructure:"log_level"                toml:"log_level"`

	Cache        CacheConfig   `mapstructure:"cache"         toml:"cache"`
	StaticRoutes []StaticRoute `mapstructure:"static_routes" toml:"static_routes"`
	Zones        []ZoneConfig  `mapstructure:"zones"         toml:"zones"`
	Default      ZoneConfig    `mapstructure:"default"       toml:"default"`
	API          APIConfig     `mapstructure:"api"           toml:"api"`
}

// ResolveConfigPath determines the config file path from the CLI argument
// or environment, in that priority order.
func ResolveConfigPath(argValue string) string {
	if strings.TrimSpace(argValue) != "" {
		return argValue
	}
	if v := strings.TrimSpace(os.Getenv("LESHY_CONFIG")); v != "" {
		return v
	}
	return ""
}

// Load loads configuration from a TOML file with environment variable
// overrides. This is the main entry point for loading configuration.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (LESHY_*)
//  2. Config file values
//  3. Default values
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}
