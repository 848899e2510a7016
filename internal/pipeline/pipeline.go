// Package pipeline orchestrates the per-query path: decode, zone match,
// cache lookup, upstream forward, cache insert, reply, and a detached
// route-install step.
package pipeline

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/miekg/dns"

	"github.com/leshy-dns/leshy/internal/cache"
	"github.com/leshy-dns/leshy/internal/config"
	"github.com/leshy-dns/leshy/internal/dnswire"
	"github.com/leshy-dns/leshy/internal/metrics"
	"github.com/leshy-dns/leshy/internal/route"
	"github.com/leshy-dns/leshy/internal/upstream"
	"github.com/leshy-dns/leshy/internal/zonematch"
)

// Handler wires together every component a query passes through.
type Handler struct {
	Logger     *slog.Logger
	Zones      *zonematch.Matcher
	Cache      *cache.Cache
	Forwarder  *upstream.Forwarder
	Routes     *route.Controller
	DeviceFile string
	Stats      *metrics.DNSStats // optional; nil disables counters
}

// Handle runs a raw request through the full pipeline and returns the
// raw bytes to send back to the client, or nil if nothing should be
// sent (request was unparseable even for a FORMERR salvage).
func (h *Handler) Handle(ctx context.Context, network, peerAddr string, raw []byte) []byte {
	start := time.Now()
	if h.Stats != nil {
		h.Stats.RecordQuery(network)
		defer func() { h.Stats.RecordLatency(time.Since(start).Nanoseconds()) }()
	}

	req, err := dnswire.ParseBounded(raw)
	if err != nil {
		return dnswire.TryFormErrFromRaw(raw)
	}

	if len(req.Question) != 1 {
		return h.pack(dnswire.BuildErrorResponse(req, dns.RcodeFormatError), req, network)
	}

	traceID := uuid.NewString()
	q := req.Question[0]
	zone := h.Zones.Match(q.Name)
	key := cache.KeyForQuery(req)

	if cached, ok := h.Cache.Lookup(key); ok {
		h.Logger.Debug("Cache hit",
			"trace_id", traceID, "name", q.Name, "qtype", dns.TypeToString[q.Qtype], "peer", peerAddr)
		if h.Stats != nil {
			h.Stats.RecordCacheHit()
		}
		cached.Id = req.Id
		return h.pack(cached, req, network)
	}

	resp, err := h.Forwarder.Forward(ctx, req, zone.Upstreams)
	if err != nil {
		h.Logger.Debug("upstream forward failed",
			"trace_id", traceID, "name", q.Name, "error", err)
		if h.Stats != nil {
			h.Stats.RecordError()
		}
		return h.pack(dnswire.BuildErrorResponse(req, dns.RcodeServerFailure), req, network)
	}

	if h.Stats != nil && resp.Rcode == dns.RcodeNameError {
		h.Stats.RecordNXDOMAIN()
	}

	h.Cache.Insert(key, resp)

	go h.applyRoute(zone, q.Name, resp)

	resp.Id = req.Id
	return h.pack(resp, req, network)
}

// pack serializes resp, applying UDP truncation for udp-network replies.
func (h *Handler) pack(resp, req *dns.Msg, network string) []byte {
	if network == "udp" {
		resp = dnswire.TruncateForUDP(resp, dnswire.ClientMaxUDPSize(req))
	}
	out, err := resp.Pack()
	if err != nil {
		h.Logger.Warn("failed to pack response", "error", err)
		return nil
	}
	return out
}

// applyRoute is launched as a detached task from the reply path: a route
// installation problem must never delay or fail the client's answer.
func (h *Handler) applyRoute(zone zonematch.Zone, queryName string, resp *dns.Msg) {
	if h.Routes == nil || zone.Route == config.RouteNone {
		return
	}

	ips := extractAddresses(resp.Answer)
	if len(ips) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.Routes.ObserveAnswer(ctx, zone.Route, zone.Gateway, h.DeviceFile, zoneLabel(zone), queryName, ips)
}

func zoneLabel(zone zonematch.Zone) string {
	return "zone-" + strconv.Itoa(zone.Index)
}

func extractAddresses(answers []dns.RR) []net.IP {
	var ips []net.IP
	for _, rr := range answers {
		switch rec := rr.(type) {
		case *dns.A:
			ips = append(ips, rec.A)
		case *dns.AAAA:
			ips = append(ips, rec.AAAA)
		}
	}
	return ips
}
