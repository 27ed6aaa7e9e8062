package cache

import "time"

// Cache is the read-path cache consumed by the service layer. The epoch is a
// process-wide counter embedded in list keys: bumping it makes every
// previously built list key unreachable in O(1), without enumerating entries.
// This abstraction keeps the store and cache implementations independently
// swappable and mockable.
type Cache interface {
	// Get retrieves a value by key. Returns false if the key was never set,
	// has expired, or was explicitly removed.
	Get(key string) ([]byte, bool)

	// Set stores a value with the given TTL and weight. Overwrites any
	// existing entry. Evicts least-recently-inserted entries when the
	// cumulative weight would exceed the configured budget.
	Set(key string, value []byte, ttl time.Duration, weight int64)

	// Remove deletes a value by key. Idempotent.
	Remove(key string)

	// BumpEpoch atomically increments the epoch and returns the new value.
	// Called exactly once per successful product mutation.
	BumpEpoch() int64

	// Epoch returns the current epoch.
	Epoch() int64
}
