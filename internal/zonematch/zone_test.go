package zonematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leshy-dns/leshy/internal/config"
)

func TestMatchSuffixPattern(t *testing.T) {
	m := Compile([]config.ZoneConfig{
		{Patterns: []string{"internal.example.com"}, Upstreams: []string{"10.0.0.1:53"}},
	}, config.ZoneConfig{Upstreams: []string{"8.8.8.8:53"}})

	z := m.Match("host.internal.example.com")
	assert.Equal(t, []string{"10.0.0.1:53"}, z.Upstreams)

	z = m.Match("internal.example.com")
	assert.Equal(t, []string{"10.0.0.1:53"}, z.Upstreams)

	z = m.Match("other.com")
	assert.Equal(t, []string{"8.8.8.8:53"}, z.Upstreams)
}

func TestMatchBareLabel(t *testing.T) {
	m := Compile([]config.ZoneConfig{
		{Patterns: []string{"corp"}, Upstreams: []string{"10.1.1.1:53"}},
	}, config.ZoneConfig{Upstreams: []string{"1.1.1.1:53"}})

	assert.Equal(t, []string{"10.1.1.1:53"}, m.Match("db.corp.internal").Upstreams)
	assert.Equal(t, []string{"10.1.1.1:53"}, m.Match("corp").Upstreams)
	assert.Equal(t, []string{"1.1.1.1:53"}, m.Match("corporate.com").Upstreams)
}

func TestMatchWildcard(t *testing.T) {
	m := Compile([]config.ZoneConfig{
		{Patterns: []string{"*.internal.example.com"}, Upstreams: []string{"10.2.2.2:53"}},
	}, config.ZoneConfig{Upstreams: []string{"1.1.1.1:53"}})

	assert.Equal(t, []string{"10.2.2.2:53"}, m.Match("host.internal.example.com").Upstreams)
	// wildcard requires a strict subdomain, the suffix itself must not match
	assert.Equal(t, []string{"1.1.1.1:53"}, m.Match("internal.example.com").Upstreams)
}

func TestMatchFirstZoneWins(t *testing.T) {
	m := Compile([]config.ZoneConfig{
		{Patterns: []string{"example.com"}, Upstreams: []string{"zone-a"}},
		{Patterns: []string{"api.example.com"}, Upstreams: []string{"zone-b"}},
	}, config.ZoneConfig{Upstreams: []string{"default"}})

	// zone-a's broader suffix pattern comes first, so it wins even though
	// zone-b's pattern would also match.
	assert.Equal(t, []string{"zone-a"}, m.Match("api.example.com").Upstreams)
}

func TestMatchExclusiveZone(t *testing.T) {
	m := Compile([]config.ZoneConfig{
		{Patterns: []string{"internal.example.com"}, Upstreams: []string{"zone-internal"}},
		{
			Exclusive: true,
			Upstreams: []string{"zone-exclusive"},
			Exclude:   []string{"excluded.example.com"},
		},
	}, config.ZoneConfig{Upstreams: []string{"default"}})

	// Claimed by the earlier inclusive zone.
	assert.Equal(t, []string{"zone-internal"}, m.Match("host.internal.example.com").Upstreams)

	// Excluded from the exclusive zone explicitly.
	assert.Equal(t, []string{"default"}, m.Match("excluded.example.com").Upstreams)

	// Everything else not claimed earlier nor excluded falls to the
	// exclusive zone.
	assert.Equal(t, []string{"zone-exclusive"}, m.Match("anything.else.com").Upstreams)
}

// Exclusive is a matching-mode flag orthogonal to Route: an exclusive
// zone can still carry a gateway next hop.
func TestMatchExclusiveZoneWithGatewayRoute(t *testing.T) {
	m := Compile([]config.ZoneConfig{
		{
			Exclusive: true,
			Upstreams: []string{"zone-exclusive"},
			Route:     config.RouteGateway,
			Gateway:   "172.28.0.1",
		},
	}, config.ZoneConfig{Upstreams: []string{"default"}})

	z := m.Match("example.de")
	assert.Equal(t, config.RouteGateway, z.Route)
	assert.Equal(t, "172.28.0.1", z.Gateway)
}

func TestMatchDefaultZoneWhenNoneConfigured(t *testing.T) {
	m := Compile(nil, config.ZoneConfig{Upstreams: []string{"8.8.8.8:53"}})
	z := m.Match("example.com")
	require.Equal(t, []string{"8.8.8.8:53"}, z.Upstreams)
}

func TestCompilePatternKinds(t *testing.T) {
	assert.Equal(t, kindBare, compilePattern("corp").kind)
	assert.Equal(t, kindSuffix, compilePattern("example.com").kind)
	assert.Equal(t, kindWildcard, compilePattern("*.example.com").kind)
}
