package bridge

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"llmbridge/internal/handle"
)

const defaultCacheCapacity = 256

// ResultCache memoizes deterministic predictions per loaded handle. Keys
// embed the handle ID, and the whole cache is purged on every lifecycle
// event, so results from a previous model are never served. A nil
// *ResultCache is valid and caches nothing.
type ResultCache struct {
	c *ttlcache.Cache[string, string]
}

// NewResultCache returns a cache with the given TTL, or nil when ttl <= 0.
// The expiration loop runs until Close.
func NewResultCache(ttl time.Duration, capacity uint64) *ResultCache {
	if ttl <= 0 {
		return nil
	}
	if capacity == 0 {
		capacity = defaultCacheCapacity
	}
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithCapacity[string, string](capacity),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &ResultCache{c: c}
}

// Close stops the expiration loop. It must be called at most once.
func (rc *ResultCache) Close() {
	if rc == nil {
		return
	}
	rc.c.Stop()
}

func cacheKey(handleID, prompt string) string { return handleID + "\x00" + prompt }

// Get returns a cached result for prompt under handleID.
func (rc *ResultCache) Get(handleID, prompt string) (string, bool) {
	if rc == nil {
		return "", false
	}
	it := rc.c.Get(cacheKey(handleID, prompt))
	if it == nil {
		return "", false
	}
	return it.Value(), true
}

// Put stores text for prompt under handleID.
func (rc *ResultCache) Put(handleID, prompt, text string) {
	if rc == nil {
		return
	}
	rc.c.Set(cacheKey(handleID, prompt), text, ttlcache.DefaultTTL)
}

// Len reports the number of cached entries.
func (rc *ResultCache) Len() int {
	if rc == nil {
		return 0
	}
	return rc.c.Len()
}

// Publish implements handle.EventPublisher: any change of the loaded model
// drops every cached result.
func (rc *ResultCache) Publish(e handle.Event) {
	if rc == nil {
		return
	}
	switch e.Name {
	case handle.EventLoadDone, handle.EventReplace, handle.EventUnload, handle.EventInvalidate:
		rc.c.DeleteAll()
	}
}
