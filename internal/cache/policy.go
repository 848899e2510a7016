package cache

import (
	"fmt"
	"time"

	"github.com/miekg/dns"

	"github.com/leshy-dns/leshy/internal/dnswire"
)

// EntryType categorizes cached DNS responses for TTL handling.
type EntryType int

const (
	Positive EntryType = iota // successful response with answers
	NXDOMAIN                  // non-existent domain (RCODE=3)
	NODATA                    // name exists but no data for the query type
)

func (t EntryType) String() string {
	switch t {
	case Positive:
		return "positive"
	case NXDOMAIN:
		return "nxdomain"
	case NODATA:
		return "nodata"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// defaultNegativeTTL is used when a negative response carries no SOA
// MINIMUM to derive a TTL from.
const defaultNegativeTTL = 300 * time.Second

// AnalyzeCacheDecision decides whether resp should be cached, for how
// long, and as which entry type.
//
// SERVFAIL (and any RCODE other than NOERROR/NXDOMAIN) is never cached:
// returns ok=false. This is a deliberate departure from upstream caching
// of transient failures, since caching a SERVFAIL would keep answering
// failed for up to the cache TTL even after the upstream recovers.
func AnalyzeCacheDecision(resp *dns.Msg) (ttl time.Duration, entryType EntryType, ok bool) {
	switch resp.Rcode {
	case dns.RcodeNameError:
		soaTTL := time.Duration(dnswire.SOAMinimum(resp.Ns)) * time.Second
		if soaTTL <= 0 {
			soaTTL = defaultNegativeTTL
		}
		return soaTTL, NXDOMAIN, true

	case dns.RcodeSuccess:
		if len(resp.Answer) == 0 {
			soaTTL := time.Duration(dnswire.SOAMinimum(resp.Ns)) * time.Second
			if soaTTL <= 0 {
				soaTTL = defaultNegativeTTL
			}
			return soaTTL, NODATA, true
		}
		minTTL := time.Duration(dnswire.MinimumTTL(resp.Answer)) * time.Second
		if minTTL <= 0 {
			return 0, Positive, false
		}
		return minTTL, Positive, true

	default:
		return 0, Positive, false
	}
}
