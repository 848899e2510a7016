// Package cache implements the bounded, TTL-aware response cache described
// in the query pipeline: a lookup returns a clone of the stored message
// with every record's TTL aged by the time spent in cache, and an insert
// classifies the response (positive / NXDOMAIN / NODATA) to decide its
// storage TTL. SERVFAIL responses are never stored.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/miekg/dns"

	"github.com/leshy-dns/leshy/internal/dnswire"
)

type entry struct {
	msg       *dns.Msg
	cachedAt  time.Time
	expiresAt time.Time
	entryType EntryType
	elem      *list.Element
}

// Cache is a thread-safe, bounded LRU cache of DNS responses keyed by
// QuestionKey.
type Cache struct {
	mu sync.Mutex

	maxEntries  int
	negativeCap time.Duration // cap applied to NXDOMAIN/NODATA TTLs

	lru  *list.List
	data map[QuestionKey]*entry

	hits   int
	misses int
}

// New creates a Cache holding at most maxEntries responses. negativeCap
// bounds how long a negative (NXDOMAIN/NODATA) entry may live even if its
// SOA MINIMUM requests longer.
func New(maxEntries int, negativeCap time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if negativeCap <= 0 {
		negativeCap = defaultNegativeTTL
	}
	return &Cache{
		maxEntries:  maxEntries,
		negativeCap: negativeCap,
		lru:         list.New(),
		data:        map[QuestionKey]*entry{},
	}
}

// Lookup returns a clone of the cached response for key with TTLs aged by
// time spent in cache, or ok=false if absent or expired.
func (c *Cache) Lookup(key QuestionKey) (resp *dns.Msg, ok bool) {
	now := time.Now()

	c.mu.Lock()
	e := c.data[key]
	if e == nil {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	if !e.expiresAt.After(now) {
		c.lru.Remove(e.elem)
		delete(c.data, key)
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	age := now.Sub(e.cachedAt)
	msg := e.msg
	c.lru.MoveToBack(e.elem)
	c.hits++
	c.mu.Unlock()

	return dnswire.AgeTTLs(msg, age), true
}

// Insert analyzes resp and, unless it is a SERVFAIL (or otherwise
// non-cacheable) response, stores it under key.
func (c *Cache) Insert(key QuestionKey, resp *dns.Msg) {
	ttl, entryType, ok := AnalyzeCacheDecision(resp)
	if !ok {
		return
	}
	if entryType != Positive && ttl > c.negativeCap {
		ttl = c.negativeCap
	}
	if ttl <= 0 {
		return
	}

	now := time.Now()
	expires := now.Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing := c.data[key]; existing != nil {
		existing.msg = resp
		existing.cachedAt = now
		existing.expiresAt = expires
		existing.entryType = entryType
		c.lru.MoveToBack(existing.elem)
		return
	}

	e := &entry{msg: resp, cachedAt: now, expiresAt: expires, entryType: entryType}
	e.elem = c.lru.PushBack(key)
	c.data[key] = e

	c.evictOldest()
}

func (c *Cache) evictOldest() {
	for len(c.data) > c.maxEntries {
		front := c.lru.Front()
		if front == nil {
			break
		}
		k := front.Value.(QuestionKey)
		c.lru.Remove(front)
		delete(c.data, k)
	}
}

// Stats returns cumulative hit/miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
