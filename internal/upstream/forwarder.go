// Package upstream forwards queries to an ordered list of upstream
// resolvers with per-attempt timeouts, UDP-with-TCP-fallback, and a
// sliding-window cold-state failover policy.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// DefaultAttemptTimeout is the per-attempt deadline (§4.3: default 5s).
const DefaultAttemptTimeout = 5 * time.Second

// ErrAllUpstreamsFailed is returned when every upstream in the list
// produced a failover-eligible failure.
var ErrAllUpstreamsFailed = errors.New("upstream: all upstreams failed")

// Forwarder sends a query to upstream resolvers, trying each endpoint in
// turn until one succeeds.
type Forwarder struct {
	health         *HealthTracker
	attemptTimeout time.Duration
	udpClient      *dns.Client
	tcpClient      *dns.Client
}

// NewForwarder creates a Forwarder. attemptTimeout <= 0 uses
// DefaultAttemptTimeout.
func NewForwarder(health *HealthTracker, attemptTimeout time.Duration) *Forwarder {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &Forwarder{
		health:         health,
		attemptTimeout: attemptTimeout,
		udpClient:      &dns.Client{Net: "udp", Timeout: attemptTimeout},
		tcpClient:      &dns.Client{Net: "tcp", Timeout: attemptTimeout},
	}
}

// Forward tries endpoints in health-adjusted order, returning the first
// successful response. On total exhaustion it returns ErrAllUpstreamsFailed,
// which the caller is expected to translate into a synthesized SERVFAIL.
func (f *Forwarder) Forward(ctx context.Context, req *dns.Msg, endpoints []string) (*dns.Msg, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("upstream: %w: no endpoints configured", ErrAllUpstreamsFailed)
	}

	ordered := f.health.OrderForAttempt(endpoints)

	for _, endpoint := range ordered {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, err := f.attempt(ctx, endpoint, req)
		if err != nil {
			f.health.MarkFailed(endpoint)
			continue
		}
		f.health.MarkHealthy(endpoint)
		return resp, nil
	}

	return nil, ErrAllUpstreamsFailed
}

// attempt performs a single UDP query, falling back to TCP if the
// response is truncated, and classifies the result per §4.3: a
// failover-eligible RCODE is treated as an error so the caller advances
// to the next endpoint.
func (f *Forwarder) attempt(ctx context.Context, endpoint string, req *dns.Msg) (*dns.Msg, error) {
	resp, _, err := f.udpClient.ExchangeContext(ctx, req, endpoint)
	if err != nil {
		return nil, fmt.Errorf("udp exchange with %s: %w", endpoint, err)
	}

	if resp.Truncated {
		resp, _, err = f.tcpClient.ExchangeContext(ctx, req, endpoint)
		if err != nil {
			return nil, fmt.Errorf("tcp retry with %s: %w", endpoint, err)
		}
	}

	if isFailoverEligible(resp.Rcode) {
		return nil, fmt.Errorf("endpoint %s returned %s", endpoint, dns.RcodeToString[resp.Rcode])
	}

	return resp, nil
}

// isFailoverEligible reports whether rcode should cause the forwarder to
// advance to the next upstream rather than returning the response.
func isFailoverEligible(rcode int) bool {
	switch rcode {
	case dns.RcodeServerFailure, dns.RcodeRefused, dns.RcodeNotImplemented, dns.RcodeFormatError:
		return true
	default:
		return false
	}
}
