package cache

import (
	"strings"

	"github.com/miekg/dns"
)

// QuestionKey identifies a cache slot by the normalized question a query
// asked. Two requests for the same name/type/class, differing only in
// letter case, share a cache entry (RFC 1035 4.1.1 case-insensitive
// comparison).
type QuestionKey struct {
	Name   string
	Qtype  uint16
	Qclass uint16
}

// KeyForQuery builds the cache key for the first question of req. Callers
// must ensure req has exactly one question before caching, which the
// pipeline enforces ahead of any cache lookup.
func KeyForQuery(req *dns.Msg) QuestionKey {
	q := req.Question[0]
	return QuestionKey{
		Name:   strings.ToLower(q.Name),
		Qtype:  q.Qtype,
		Qclass: q.Qclass,
	}
}
