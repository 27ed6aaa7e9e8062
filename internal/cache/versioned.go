package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Default sizing. The weight budget bounds the cumulative weight of all
// entries; the per-entry cap keeps one large page result from consuming a
// disproportionate share of it.
const (
	DefaultWeightBudget   = 1000
	DefaultMaxEntryWeight = 100

	cleanupInterval = time.Minute
)

// entry represents a cached value with expiration and a weight charged
// against the global budget.
type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
	weight    int64
	elem      *list.Element
}

// isExpired checks if the entry has expired.
func (e *entry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// Options configures a VersionedCache.
type Options struct {
	// WeightBudget is the maximum cumulative entry weight. Zero means
	// DefaultWeightBudget.
	WeightBudget int64

	// MaxEntryWeight caps the weight charged for a single entry. Zero means
	// DefaultMaxEntryWeight.
	MaxEntryWeight int64
}

// VersionedCache is a bounded in-memory key/value store with per-entry TTL
// and a global epoch counter. It serves filtered product pages and
// single-entity lookups; list keys embed the epoch so a single atomic bump
// invalidates every previously built list key. Stale entries left behind by
// a bump occupy the cache only until their TTL or an eviction reclaims them.
type VersionedCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // insertion order, front = oldest
	used    int64

	budget         int64
	maxEntryWeight int64

	epoch atomic.Int64

	stopCleanup chan struct{}
}

// NewVersionedCache creates a new cache with automatic TTL cleanup.
func NewVersionedCache(opts Options) *VersionedCache {
	if opts.WeightBudget <= 0 {
		opts.WeightBudget = DefaultWeightBudget
	}
	if opts.MaxEntryWeight <= 0 {
		opts.MaxEntryWeight = DefaultMaxEntryWeight
	}
	if opts.MaxEntryWeight > opts.WeightBudget {
		opts.MaxEntryWeight = opts.WeightBudget
	}

	c := &VersionedCache{
		entries:        make(map[string]*entry),
		order:          list.New(),
		budget:         opts.WeightBudget,
		maxEntryWeight: opts.MaxEntryWeight,
		stopCleanup:    make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a value by key. Returns false if the key was never set,
// has expired, or was explicitly removed.
func (c *VersionedCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if e.isExpired() {
		c.removeLocked(e)
		return nil, false
	}

	result := make([]byte, len(e.value))
	copy(result, e.value)
	return result, true
}

// Set stores a value with the given TTL and weight, overwriting any existing
// entry. The weight is capped at MaxEntryWeight. When the cumulative weight
// would exceed the budget, the least-recently-inserted entries are evicted
// until the new entry fits.
func (c *VersionedCache) Set(key string, value []byte, ttl time.Duration, weight int64) {
	if weight < 1 {
		weight = 1
	}
	if weight > c.maxEntryWeight {
		weight = c.maxEntryWeight
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, exists := c.entries[key]; exists {
		c.removeLocked(old)
	}

	for c.used+weight > c.budget {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*entry))
	}

	e := &entry{
		key:       key,
		value:     valueCopy,
		expiresAt: time.Now().Add(ttl),
		weight:    weight,
	}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e
	c.used += weight
}

// Remove deletes a value by key. Idempotent.
func (c *VersionedCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.entries[key]; exists {
		c.removeLocked(e)
	}
}

// BumpEpoch atomically increments the epoch and returns the new value.
// Safe under concurrent callers; every bump is globally ordered and visible
// to all subsequent key builds.
func (c *VersionedCache) BumpEpoch() int64 {
	return c.epoch.Add(1)
}

// Epoch returns the current epoch.
func (c *VersionedCache) Epoch() int64 {
	return c.epoch.Load()
}

// Weight returns the cumulative weight currently charged against the budget.
func (c *VersionedCache) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Len returns the number of live entries, expired or not.
func (c *VersionedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the background cleanup goroutine.
func (c *VersionedCache) Close() error {
	close(c.stopCleanup)
	return nil
}

// removeLocked unlinks an entry. Caller must hold c.mu.
func (c *VersionedCache) removeLocked(e *entry) {
	delete(c.entries, e.key)
	c.order.Remove(e.elem)
	c.used -= e.weight
}

// cleanup periodically removes expired entries.
func (c *VersionedCache) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

// removeExpired removes all expired entries.
func (c *VersionedCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.isExpired() {
			c.removeLocked(e)
		}
	}
}

// Ensure VersionedCache implements Cache
var _ Cache = (*VersionedCache)(nil)
