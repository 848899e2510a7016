package route

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/leshy-dns/leshy/internal/config"
	"github.com/leshy-dns/leshy/internal/device"
)

// kernel is the subset of kernelRouter's behavior the controller depends
// on, so tests can substitute a fake rather than shelling out for real.
type kernel interface {
	install(ctx context.Context, dest string, next NextHop) error
	withdraw(ctx context.Context, dest string) error
}

// Controller owns the set of dynamic routes it has installed and
// reconciles new answers against it. It never mutates a route it did not
// create.
type Controller struct {
	mu                sync.Mutex
	owned             map[string]*Route
	aggregationPrefix int
	kernel            kernel
	logger            *slog.Logger
}

// NewController creates a Controller. aggregationPrefix <= 0 means
// per-host routes (no aggregation).
func NewController(aggregationPrefix int, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		owned:             map[string]*Route{},
		aggregationPrefix: aggregationPrefix,
		kernel:            newKernelRouter(),
		logger:            logger,
	}
}

// AddStatic installs a route unconditionally at startup. Idempotent: a
// repeat call with the same destination and next hop is a no-op.
func (c *Controller) AddStatic(ctx context.Context, dest *net.IPNet, next NextHop) {
	c.install(ctx, dest, next, Static, "", "")
}

// ObserveAnswer derives destinations from the A/AAAA addresses in ips and
// installs routes consistent with the zone's route policy. Installation
// failures are logged and never propagated: a routing problem must never
// fail the DNS query that triggered it.
func (c *Controller) ObserveAnswer(ctx context.Context, zoneRoute config.RoutePolicy, gateway, deviceFile, zoneName, queryName string, ips []net.IP) {
	next, ok := c.resolveNextHop(zoneRoute, gateway, deviceFile)
	if !ok {
		return
	}

	for _, ip := range ips {
		dest, err := AggregateDestination(ip, c.aggregationPrefix)
		if err != nil {
			c.logger.Warn("route aggregation failed", "ip", ip.String(), "error", err)
			continue
		}
		c.install(ctx, dest, next, Dynamic, zoneName, queryName)
	}
}

// resolveNextHop turns a zone's route policy into a concrete next hop,
// or ok=false if no route should be installed (none, or an inactive
// via-device policy because the device file is absent/empty).
func (c *Controller) resolveNextHop(policy config.RoutePolicy, gateway, deviceFile string) (NextHop, bool) {
	switch policy {
	case config.RouteGateway:
		ip := net.ParseIP(gateway)
		if ip == nil {
			c.logger.Warn("route: invalid gateway address", "gateway", gateway)
			return NextHop{}, false
		}
		return NextHop{Gateway: ip}, true

	case config.RouteDevice:
		name, ok := device.Read(deviceFile)
		if !ok {
			// Fallback mode: resolution already happened, answer is
			// still returned, only the route is skipped.
			return NextHop{}, false
		}
		return NextHop{Device: name}, true

	default:
		return NextHop{}, false
	}
}

// install applies idempotence/conflict rules and shells out to the
// kernel only when the destination is not yet owned; an owned destination
// (identical or conflicting next hop) makes no kernel call.
func (c *Controller) install(ctx context.Context, dest *net.IPNet, next NextHop, provenance Provenance, zoneName, queryName string) {
	key := destinationKey(dest)

	c.mu.Lock()
	if existing, exists := c.owned[key]; exists {
		if existing.NextHop.equal(next) {
			c.mu.Unlock()
			return // already installed (or being installed) with this next hop
		}
		// Policy conflict: first installer wins.
		c.logger.Warn("route: next-hop conflict, keeping first installer",
			"destination", key, "existing", existing.NextHop.String(), "rejected", next.String())
		c.mu.Unlock()
		return
	}

	// Reserve the key before the kernel call, still under the lock, so a
	// concurrent install for the same destination sees it as claimed
	// instead of racing to shell out twice.
	reserved := &Route{
		Destination: dest,
		NextHop:     next,
		Provenance:  provenance,
		Zone:        zoneName,
		QueryName:   queryName,
		InsertedAt:  time.Now(),
	}
	c.owned[key] = reserved
	c.mu.Unlock()

	if err := c.kernel.install(ctx, key, next); err != nil {
		c.logger.Warn("route install failed", "destination", key, "next_hop", next.String(), "error", err)
		c.mu.Lock()
		if c.owned[key] == reserved {
			delete(c.owned, key)
		}
		c.mu.Unlock()
	}
}

// Owned returns a snapshot of the currently owned routes, for
// introspection.
func (c *Controller) Owned() []Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Route, 0, len(c.owned))
	for _, r := range c.owned {
		out = append(out, *r)
	}
	return out
}

// Shutdown best-effort withdraws every dynamic route the controller
// installed. Failures are logged and do not stop the remaining
// withdrawals.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	dynamic := make([]string, 0, len(c.owned))
	for key, r := range c.owned {
		if r.Provenance == Dynamic {
			dynamic = append(dynamic, key)
		}
	}
	c.mu.Unlock()

	for _, key := range dynamic {
		if err := c.kernel.withdraw(ctx, key); err != nil {
			c.logger.Warn("route withdraw failed", "destination", key, "error", err)
			continue
		}
		c.mu.Lock()
		delete(c.owned, key)
		c.mu.Unlock()
	}
}
