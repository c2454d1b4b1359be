// Package cache provides the bounded, expiring resolution cache.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JakeFAU/charm-vin-resolver/internal/metrics"
	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

// Config bounds the cache. Capacity 0 means unbounded and TTL 0 means entries never expire.
type Config struct {
	Capacity int
	TTL      time.Duration
}

// LRU is a thread-safe least-recently-used cache of resolved VINs.
type LRU struct {
	entries *expirable.LRU[string, resolver.Entry]
}

var _ resolver.Cache = (*LRU)(nil)

// New constructs an LRU. Each call returns an independent store.
func New(cfg Config) *LRU {
	onEvict := func(string, resolver.Entry) {
		metrics.ObserveCache("evict")
	}
	return &LRU{
		entries: expirable.NewLRU[string, resolver.Entry](cfg.Capacity, onEvict, cfg.TTL),
	}
}

// Get returns the entry for vin. Keys are case-sensitive.
func (c *LRU) Get(vin string) (resolver.Entry, bool) {
	entry, ok := c.entries.Get(vin)
	if !ok {
		metrics.ObserveCache("miss")
		return resolver.Entry{}, false
	}
	metrics.ObserveCache("hit")
	return entry, true
}

// Set stores entry under vin, replacing any previous value.
func (c *LRU) Set(vin string, entry resolver.Entry) {
	c.entries.Add(vin, entry)
}

// Len returns the number of cached VINs, expired ones included until they are swept.
func (c *LRU) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *LRU) Purge() {
	c.entries.Purge()
}
