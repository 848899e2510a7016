package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		envValue string
		want     string
	}{
		{"arg takes precedence", "/path/from/arg", "/path/from/env", "/path/from/arg"},
		{"env when no arg", "", "/path/from/env", "/path/from/env"},
		{"empty when neither", "", "", ""},
		{"whitespace arg falls back to env", "  ", "/path/from/env", "/path/from/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LESHY_CONFIG", tt.envValue)
			got := ResolveConfigPath(tt.arg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "leshy.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `listen = "0.0.0.0:53"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:53", cfg.Listen)
	assert.Equal(t, "/tmp/vpn.dev", cfg.DeviceFile)
	assert.Equal(t, 0, cfg.RouteAggregationPrefix) // absent: per-host routes
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10000, cfg.Cache.Size)
	assert.Equal(t, 30, cfg.Cache.NegativeTTLSeconds)
	assert.Equal(t, RouteNone, cfg.Default.Route)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadZonesAndRoutes(t *testing.T) {
	path := writeConfig(t, `
listen = "127.0.0.1:5353"
device_file = "/tmp/tun0.dev"
route_aggregation_prefix = 22

[cache]
size = 500
negative_ttl_seconds = 30

[[static_routes]]
destination = "10.0.0.0/8"
via = "10.1.1.1"

[[zones]]
patterns = ["corp", "*.internal.example.com"]
upstreams = ["10.1.1.53:53"]
route = "gateway"
gateway = "10.1.1.1"

[default]
upstreams = ["8.8.8.8:53", "1.1.1.1:53"]
route = "none"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5353", cfg.Listen)
	assert.Equal(t, "/tmp/tun0.dev", cfg.DeviceFile)
	assert.Equal(t, 22, cfg.RouteAggregationPrefix)
	assert.Equal(t, 500, cfg.Cache.Size)
	assert.Equal(t, 30, cfg.Cache.NegativeTTLSeconds)

	require.Len(t, cfg.StaticRoutes, 1)
	assert.Equal(t, "10.0.0.0/8", cfg.StaticRoutes[0].Destination)
	assert.Equal(t, "10.1.1.1", cfg.StaticRoutes[0].Via)

	require.Len(t, cfg.Zones, 1)
	assert.Equal(t, []string{"corp", "*.internal.example.com"}, cfg.Zones[0].Patterns)
	assert.Equal(t, RouteGateway, cfg.Zones[0].Route)

	assert.Equal(t, []string{"8.8.8.8:53", "1.1.1.1:53"}, cfg.Default.Upstreams)
	assert.Equal(t, RouteNone, cfg.Default.Route)
}

func TestLoadRejectsEmptyListen(t *testing.T) {
	path := writeConfig(t, `listen = ""`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsZoneWithoutPatterns(t *testing.T) {
	path := writeConfig(t, `
listen = "0.0.0.0:53"

[[zones]]
upstreams = ["8.8.8.8:53"]
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidRoutePolicy(t *testing.T) {
	path := writeConfig(t, `
listen = "0.0.0.0:53"

[[zones]]
patterns = ["example.com"]
upstreams = ["8.8.8.8:53"]
route = "bogus"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, `listen = "0.0.0.0:53"`)
	t.Setenv("LESHY_LISTEN", "0.0.0.0:9953")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9953", cfg.Listen)
}
