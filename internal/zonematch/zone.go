package zonematch

import (
	"github.com/leshy-dns/leshy/internal/config"
)

// Zone is a compiled, ready-to-match zone: its patterns, upstream
// preference list, and route policy.
type Zone struct {
	Index     int
	Patterns  []pattern
	Upstreams []string
	Route     config.RoutePolicy
	Gateway   string

	exclusive bool
	exclude   []pattern
}

// Matcher holds the compiled zone list (in configured order) plus the
// implicit terminal default zone.
type Matcher struct {
	zones   []Zone
	fallback Zone
}

// Compile builds a Matcher from the raw zone configuration. Zones are
// compiled in the order given; that order is the match priority.
func Compile(zones []config.ZoneConfig, fallback config.ZoneConfig) *Matcher {
	m := &Matcher{zones: make([]Zone, 0, len(zones))}

	for i, z := range zones {
		compiled := Zone{
			Index:     i,
			Patterns:  compilePatterns(z.Patterns),
			Upstreams: z.Upstreams,
			Route:     z.Route,
			Gateway:   z.Gateway,
			exclusive: z.Exclusive,
			exclude:   compilePatterns(z.Exclude),
		}
		m.zones = append(m.zones, compiled)
	}

	m.fallback = Zone{
		Index:     len(zones),
		Upstreams: fallback.Upstreams,
		Route:     fallback.Route,
		Gateway:   fallback.Gateway,
	}

	return m
}

func compilePatterns(raw []string) []pattern {
	out := make([]pattern, 0, len(raw))
	for _, r := range raw {
		out = append(out, compilePattern(r))
	}
	return out
}

// Match classifies name against the compiled zone list, first match
// wins. An exclusive zone matches every name not claimed by an earlier
// zone and not present in its own exclude list; its own Patterns are not
// consulted. Zones listed after an exclusive zone therefore only see the
// names on its exclude list.
//
// If no configured zone claims name, the implicit default zone is
// returned.
func (m *Matcher) Match(name string) Zone {
	normalized := normalizeDomain(name)
	labels := reversedLabels(normalized)

	for _, z := range m.zones {
		if z.exclusive {
			if matchesExcludeList(z.exclude, labels) {
				continue
			}
			return z
		}
		if matchesAny(z.Patterns, labels) {
			return z
		}
	}

	return m.fallback
}

func matchesAny(patterns []pattern, labels []string) bool {
	for _, p := range patterns {
		if p.matches(labels) {
			return true
		}
	}
	return false
}

func matchesExcludeList(exclude []pattern, labels []string) bool {
	return matchesAny(exclude, labels)
}
