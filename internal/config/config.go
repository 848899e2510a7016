package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// initConfig sets up the config loader with defaults, env binding, and the
// TOML config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Environment variable binding: LESHY_CACHE_SIZE -> cache.size
	v.SetEnvPrefix("LESHY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		return nil, errors.New("config path is required")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return v, nil
}

// setDefaults configures all default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:53")
	v.SetDefault("device_file", "/tmp/vpn.dev")
	v.SetDefault("log_level", "info")

	v.SetDefault("cache.size", 10000)
	v.SetDefault("cache.negative_ttl_seconds", 30)

	v.SetDefault("default.route", string(RouteNone))

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.listen", "127.0.0.1:8853")
}

// loadFromSource loads configuration from the TOML file and environment.
func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalizeConfig validates and fills in defaults that Unmarshal cannot
// express (zero values that are also valid user input).
func normalizeConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Listen) == "" {
		return errors.New("listen address must not be empty")
	}
	if cfg.Cache.Size <= 0 {
		cfg.Cache.Size = 10000
	}
	if cfg.Cache.NegativeTTLSeconds <= 0 {
		cfg.Cache.NegativeTTLSeconds = 30
	}
	// route_aggregation_prefix is optional: <= 0 (including absent, the
	// zero value) means per-host routes. Left unvalidated otherwise and
	// passed straight through to AggregateDestination, which already
	// bounds it per address family (up to /32 for IPv4, /128 for IPv6).
	if cfg.DeviceFile == "" {
		cfg.DeviceFile = "/tmp/vpn.dev"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Default.Route == "" {
		cfg.Default.Route = RouteNone
	}
	if err := validateRoutePolicy(cfg.Default.Route); err != nil {
		return fmt.Errorf("default zone: %w", err)
	}

	for i := range cfg.Zones {
		z := &cfg.Zones[i]
		if len(z.Patterns) == 0 {
			return fmt.Errorf("zone %d: at least one pattern is required", i)
		}
		if z.Route == "" {
			z.Route = RouteNone
		}
		if err := validateRoutePolicy(z.Route); err != nil {
			return fmt.Errorf("zone %d: %w", i, err)
		}
		if z.Route == RouteGateway && strings.TrimSpace(z.Gateway) == "" {
			return fmt.Errorf("zone %d: gateway route requires a gateway address", i)
		}
	}

	if cfg.API.Enabled && strings.TrimSpace(cfg.API.Listen) == "" {
		return errors.New("api.listen must not be empty when api.enabled is true")
	}

	return nil
}

func validateRoutePolicy(p RoutePolicy) error {
	switch p {
	case RouteNone, RouteGateway, RouteDevice:
		return nil
	default:
		return fmt.Errorf("invalid route policy %q", p)
	}
}
