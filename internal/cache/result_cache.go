// Package cache provides a bounded, sliding-TTL memoization of full
// synthesis results keyed by the originating article link.
package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/feedtape/tts-service/internal/core"
)

// Default sizing for the result cache.
const (
	DefaultCapacity = 256
	DefaultIdleTTL  = 30 * time.Minute
)

// ResultCache memoizes synthesis results. Entries expire after a fixed idle
// period; every hit refreshes the timer. When capacity is exceeded, the entry
// closest to expiry is evicted. Safe for concurrent use.
//
// Concurrent misses for the same key may both synthesize and both store.
// That duplicates provider cost once but is not a correctness problem, so no
// per-key in-flight lock is taken.
type ResultCache struct {
	entries *ttlcache.Cache[string, core.SynthesisResult]
}

// New creates a started result cache with the given capacity and idle TTL.
// Non-positive arguments fall back to the defaults.
func New(capacity int, idleTTL time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}

	entries := ttlcache.New(
		ttlcache.WithTTL[string, core.SynthesisResult](idleTTL),
		ttlcache.WithCapacity[string, core.SynthesisResult](uint64(capacity)),
	)

	go entries.Start()

	return &ResultCache{entries: entries}
}

// Get returns the cached result for a link. A hit extends the entry's idle
// timer.
func (c *ResultCache) Get(link string) (core.SynthesisResult, bool) {
	item := c.entries.Get(link)
	if item == nil {
		return core.SynthesisResult{}, false
	}

	return item.Value(), true
}

// Set stores a result under the link, replacing any existing entry.
func (c *ResultCache) Set(link string, result core.SynthesisResult) {
	c.entries.Set(link, result, ttlcache.DefaultTTL)
}

// Stop halts the background expiration loop.
func (c *ResultCache) Stop() {
	c.entries.Stop()
}
