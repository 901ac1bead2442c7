package maghrib

import (
	"fmt"
	"sync"
	"time"

	"github.com/albapepper/iftar-push/internal/localtime"
)

// Maghrib for a given (date, place, zone) never changes, so cache hits are
// always safe. 6 hours comfortably outlives one day of sweeps.
const cacheTTL = 6 * time.Hour

type cacheEntry struct {
	hm        localtime.HourMinute
	expiresAt time.Time
}

// timeCache is a thread-safe TTL cache of resolved Maghrib times. Nearby
// subscribers share entries because coordinates are rounded to two decimals
// (~1 km) in the key.
type timeCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newTimeCache() *timeCache {
	return &timeCache{entries: make(map[string]cacheEntry)}
}

// cacheKey builds the (date, rounded coordinates, zone) lookup key.
func cacheKey(lat, lng float64, localDate time.Time, zone string) string {
	return fmt.Sprintf("%s|%.2f|%.2f|%s", localDate.Format("2006-01-02"), lat, lng, zone)
}

func (c *timeCache) get(key string) (localtime.HourMinute, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return localtime.HourMinute{}, false
	}
	return e.hm, true
}

func (c *timeCache) set(key string, hm localtime.HourMinute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Lazy eviction: a sweep is a short-lived batch, so sweep out expired
	// entries opportunistically instead of running a background ticker.
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{hm: hm, expiresAt: now.Add(cacheTTL)}
}
