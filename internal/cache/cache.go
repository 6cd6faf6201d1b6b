// Package cache holds a short-lived copy of the record table so repeated
// list calls do not re-read the local store. Entries expire after a bounded
// TTL and are invalidated explicitly after every successful local write.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintlog_cache_hits_total",
		Help: "Table reads served from the read cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintlog_cache_misses_total",
		Help: "Table reads that fell through to the local store.",
	})
)

const tableKey = "table"

// TableCache caches the whole table under a single key. A nil *TableCache is
// a valid, always-empty cache.
type TableCache struct {
	lru *expirable.LRU[string, *types.Table]
}

// New returns a cache whose entry lives for ttl, or nil when ttl is not
// positive.
func New(ttl time.Duration) *TableCache {
	if ttl <= 0 {
		return nil
	}
	return &TableCache{lru: expirable.NewLRU[string, *types.Table](1, nil, ttl)}
}

// Get returns a copy of the cached table.
func (c *TableCache) Get() (*types.Table, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.lru.Get(tableKey)
	if !ok {
		cacheMissesTotal.Inc()
		return nil, false
	}
	cacheHitsTotal.Inc()
	return t.Clone(), true
}

// Set stores a copy of t.
func (c *TableCache) Set(t *types.Table) {
	if c == nil {
		return
	}
	c.lru.Add(tableKey, t.Clone())
}

// Invalidate drops the cached table.
func (c *TableCache) Invalidate() {
	if c == nil {
		return
	}
	c.lru.Remove(tableKey)
}
