// Package dnswire wraps github.com/miekg/dns with the small set of
// operations the rest of Leshy needs: bounded parsing, error-response
// construction, TTL ageing of a cached message, and UDP truncation.
//
// The wire codec itself (parsing/building RFC 1035 messages) is treated
// as a library concern handled entirely by miekg/dns; this package only
// adds the policy glue around it.
package dnswire

import (
	"time"

	"github.com/miekg/dns"

	"github.com/leshy-dns/leshy/internal/helpers"
)

// Size limits for incoming/outgoing messages.
const (
	MaxIncomingMessageSize = 65535 // TCP message cap (RFC 1035 2-byte length prefix)
	DefaultUDPPayloadSize  = 512   // plain DNS UDP payload limit with no EDNS
	EDNSMaxUDPPayloadSize  = 4096  // cap we advertise and honor for EDNS0 UDP responses
)

// ParseBounded unpacks a raw DNS message, rejecting anything larger than
// MaxIncomingMessageSize before attempting to parse it.
func ParseBounded(raw []byte) (*dns.Msg, error) {
	if len(raw) > MaxIncomingMessageSize {
		return nil, dns.ErrLongDomain
	}
	msg := new(dns.Msg)
	if err := msg.Unpack(raw); err != nil {
		return nil, err
	}
	return msg, nil
}

// BuildErrorResponse builds a response to req with the given RCODE and no
// answer/authority/additional records.
func BuildErrorResponse(req *dns.Msg, rcode int) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetRcode(req, rcode)
	return resp
}

// TryFormErrFromRaw attempts to build a FORMERR response from a request
// that failed to fully parse, by salvaging just the transaction ID and,
// if possible, the question section directly from the wire bytes.
//
// Returns nil if even the 12-byte header cannot be read, signaling that
// the caller should drop the packet rather than reply.
func TryFormErrFromRaw(raw []byte) []byte {
	if len(raw) < 12 {
		return nil
	}

	id := uint16(raw[0])<<8 | uint16(raw[1])
	qdcount := uint16(raw[4])<<8 | uint16(raw[5])

	resp := new(dns.Msg)
	resp.Id = id
	resp.Response = true
	resp.Rcode = dns.RcodeFormatError

	if qdcount > 0 {
		name, off, err := dns.UnpackDomainName(raw, 12)
		if err == nil && off+4 <= len(raw) {
			qtype := uint16(raw[off])<<8 | uint16(raw[off+1])
			qclass := uint16(raw[off+2])<<8 | uint16(raw[off+3])
			resp.Question = []dns.Question{{Name: name, Qtype: qtype, Qclass: qclass}}
		}
	}

	out, err := resp.Pack()
	if err != nil {
		return nil
	}
	return out
}

// MinimumTTL returns the smallest non-zero TTL among rrs, or 0 if none
// have a usable TTL.
func MinimumTTL(rrs []dns.RR) uint32 {
	var min uint32
	found := false
	for _, rr := range rrs {
		ttl := rr.Header().Ttl
		if ttl == 0 {
			continue
		}
		if !found || ttl < min {
			min = ttl
			found = true
		}
	}
	if !found {
		return 0
	}
	return min
}

// SOAMinimum returns the MINIMUM field of the first SOA record found in
// rrs (conventionally the authority section), or 0 if none is present.
// Used for RFC 2308 negative-TTL derivation.
func SOAMinimum(rrs []dns.RR) uint32 {
	for _, rr := range rrs {
		if soa, ok := rr.(*dns.SOA); ok {
			return soa.Minttl
		}
	}
	return 0
}

// AgeTTLs always returns a copy of msg, with every record TTL decremented
// by age, floored at 1 second. Callers depend on the returned message
// never aliasing msg, even when age rounds down to zero seconds, since
// msg may be a cache entry read concurrently by other lookups. EDNS0 OPT
// pseudo-records are left untouched since they carry no real TTL
// semantics.
func AgeTTLs(msg *dns.Msg, age time.Duration) *dns.Msg {
	out := msg.Copy()
	if age <= 0 {
		return out
	}
	ageSeconds := helpers.ClampIntToUint32(int(age.Seconds()))
	if ageSeconds == 0 {
		return out
	}

	for _, section := range [][]dns.RR{out.Answer, out.Ns, out.Extra} {
		for _, rr := range section {
			if rr.Header().Rrtype == dns.TypeOPT {
				continue
			}
			h := rr.Header()
			if h.Ttl <= ageSeconds {
				h.Ttl = 1
			} else {
				h.Ttl -= ageSeconds
			}
		}
	}
	return out
}

// ClientMaxUDPSize returns the UDP payload size the client advertised via
// EDNS0, or DefaultUDPPayloadSize if the client sent none.
func ClientMaxUDPSize(req *dns.Msg) int {
	if opt := req.IsEdns0(); opt != nil {
		size := int(opt.UDPSize())
		if size > 0 {
			return size
		}
	}
	return DefaultUDPPayloadSize
}

// TruncateForUDP sets the TC bit and strips all records when msg would
// exceed maxSize once packed, per RFC 1035 4.2.1: the client is expected
// to retry over TCP.
func TruncateForUDP(msg *dns.Msg, maxSize int) *dns.Msg {
	if maxSize <= 0 {
		maxSize = DefaultUDPPayloadSize
	}
	packed, err := msg.Pack()
	if err != nil || len(packed) <= maxSize {
		return msg
	}

	out := msg.Copy()
	out.Answer = nil
	out.Ns = nil
	out.Extra = nil
	out.Truncated = true
	return out
}
