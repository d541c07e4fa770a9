// Package cache memoizes derived ledger reports between mutations.
package cache

// Cache holds reports keyed by the day they were computed for.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	// Purge drops every entry. The ledger calls it after each mutation.
	Purge()
	Stats() Stats
}

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits   int
	Misses int
	Size   int
}
